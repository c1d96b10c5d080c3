package billing

import "strings"

// Channel is one of the four canonical payment channels tracked in
// shift-handover reconciliation. The set is fixed: front-desk payments in
// this system settle as cash, WeChat, WeiYouFu (the UnionPay/Alipay-style
// aggregator) or "other". Credit cards have no dedicated bucket and fall
// into Other.
type Channel string

const (
	ChannelCash     Channel = "cash"
	ChannelWeChat   Channel = "wechat"
	ChannelWeiYouFu Channel = "weiyoufu"
	ChannelOther    Channel = "other"
)

// AllChannels returns the canonical channels in report order.
func AllChannels() []Channel {
	return []Channel{ChannelCash, ChannelWeChat, ChannelWeiYouFu, ChannelOther}
}

// Label returns the front-desk display name.
func (c Channel) Label() string {
	switch c {
	case ChannelCash:
		return "现金"
	case ChannelWeChat:
		return "微信"
	case ChannelWeiYouFu:
		return "微邮付"
	default:
		return "其他"
	}
}

// exact front-desk labels seen in order data; matched before the
// substring rules.
var canonicalLabels = map[string]Channel{
	"现金":  ChannelCash,
	"微信":  ChannelWeChat,
	"微邮付": ChannelWeiYouFu,
	"其他":  ChannelOther,
}

// NormalizeChannel maps a free-text payment label to a canonical Channel.
// The function is total: any unrecognized label falls through to Other,
// and an empty label means the guest paid cash, the front desk default.
func NormalizeChannel(raw string) Channel {
	label := strings.TrimSpace(raw)
	if label == "" {
		return ChannelCash
	}
	if c, ok := canonicalLabels[label]; ok {
		return c
	}

	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "cash") || strings.Contains(lower, "现"):
		return ChannelCash
	case strings.Contains(lower, "wechat") || strings.Contains(lower, "weixin") ||
		(strings.Contains(lower, "微") && strings.Contains(lower, "信")):
		return ChannelWeChat
	case strings.Contains(lower, "ali") || strings.Contains(lower, "pay") ||
		strings.Contains(lower, "支付宝") || strings.Contains(lower, "邮付"):
		return ChannelWeiYouFu
	default:
		// Credit cards ("credit", 信用卡) intentionally land here; the
		// reconciliation has no card bucket.
		return ChannelOther
	}
}
