package billing

import "strings"

// StayKind tells a day-use ("rest") stay apart from a multi-night
// ("hotel") stay. It is derived from the check-in and check-out dates and
// must be recomputed whenever either date changes.
type StayKind string

const (
	StayDayUse     StayKind = "day_use"
	StayMultiNight StayKind = "multi_night"
)

// BusinessType partitions income and refunds in the handover report.
type BusinessType string

const (
	BusinessHotel BusinessType = "hotel"
	BusinessRest  BusinessType = "rest"
)

// ClassifyStay returns DayUse when check-in and check-out fall on the
// same calendar date, MultiNight otherwise. Time of day never matters.
func ClassifyStay(checkIn, checkOut Date) StayKind {
	if checkIn == checkOut {
		return StayDayUse
	}
	return StayMultiNight
}

// BusinessType maps the stay kind to its report bucket.
func (k StayKind) BusinessType() BusinessType {
	if k == StayDayUse {
		return BusinessRest
	}
	return BusinessHotel
}

// DayUseTag is the display prefix the front desk expects on day-use
// remarks. It is derived from stay_kind, never the other way around.
const DayUseTag = "[休息]"

// TagDayUseRemarks prefixes remarks with the day-use tag. Idempotent:
// remarks that already carry the tag are returned unchanged.
func TagDayUseRemarks(remarks string) string {
	if strings.Contains(remarks, DayUseTag) {
		return remarks
	}
	if remarks == "" {
		return DayUseTag
	}
	return DayUseTag + " " + remarks
}
