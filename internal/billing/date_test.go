package billing

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2024-03-01" {
		t.Errorf("round trip = %s", d.String())
	}

	for _, bad := range []string{"", "2024-3-1", "01/02/2024", "2024-02-30", "2024-01-01T00:00:00Z"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) accepted", bad)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	d := mustDate(t, "2024-02-28")
	if d.Next().String() != "2024-02-29" { // leap year
		t.Errorf("next = %s", d.Next())
	}
	if mustDate(t, "2024-03-01").Prev().String() != "2024-02-29" {
		t.Errorf("prev across month = %s", mustDate(t, "2024-03-01").Prev())
	}
	if n := mustDate(t, "2024-01-01").DaysUntil(mustDate(t, "2024-01-04")); n != 3 {
		t.Errorf("days until = %d", n)
	}
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 5, 1, 23, 59, 59, 0, time.FixedZone("CST", 8*3600))
	if got := DateOf(late); got.String() != "2024-05-01" {
		t.Errorf("DateOf = %s", got)
	}
}

func TestDateAsJSONKey(t *testing.T) {
	alloc := map[Date]string{mustDate(t, "2024-01-02"): "100"}
	data, err := json.Marshal(alloc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"2024-01-02":"100"}` {
		t.Errorf("marshaled = %s", data)
	}

	var back map[Date]string
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[mustDate(t, "2024-01-02")] != "100" {
		t.Errorf("round trip lost the entry: %v", back)
	}
}
