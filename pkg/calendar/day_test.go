package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain day", input: "2025-03-14", want: "2025-03-14"},
		{name: "surrounding spaces", input: "  2025-03-14 ", want: "2025-03-14"},
		{name: "leap day", input: "2024-02-29", want: "2024-02-29"},
		{name: "not a leap year", input: "2025-02-29", wantErr: true},
		{name: "timestamp is rejected", input: "2025-03-14T10:00:00Z", wantErr: true},
		{name: "slashes", input: "2025/03/14", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDay) {
					t.Fatalf("expected ErrInvalidDay, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDay_AddDaysAndCompare(t *testing.T) {
	d := NewDay(2024, time.December, 31)

	next := d.AddDays(1)
	if next.String() != "2025-01-01" {
		t.Errorf("expected 2025-01-01, got %s", next)
	}
	if !d.Before(next) || !next.After(d) {
		t.Errorf("expected %s before %s", d, next)
	}
	if !d.Equal(NewDay(2024, time.December, 31)) {
		t.Error("expected equal days")
	}
	if !next.Within(d, next) || d.AddDays(2).Within(d, next) {
		t.Error("Within must be inclusive on both ends only")
	}
}

func TestRange_InclusiveBothEnds(t *testing.T) {
	start := NewDay(2025, time.February, 27)
	end := NewDay(2025, time.March, 2)

	days := Range(start, end)
	want := []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i, d := range days {
		if d.String() != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], d)
		}
	}

	if got := Range(end, start); got != nil {
		t.Errorf("expected nil for reversed range, got %v", got)
	}
}

func TestDayOf_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2025, time.May, 1, 22, 30, 0, 0, time.UTC)

	if got := DayOf(instant, time.UTC).String(); got != "2025-05-01" {
		t.Errorf("expected 2025-05-01 in UTC, got %s", got)
	}

	day, tod := Split(instant, loc)
	if day.String() != "2025-05-02" {
		t.Errorf("expected 2025-05-02 in UTC+3, got %s", day)
	}
	if tod.String() != "01:30" {
		t.Errorf("expected 01:30, got %s", tod)
	}
	if !day.At(tod, loc).Equal(instant) {
		t.Errorf("expected At to round-trip to %s, got %s", instant, day.At(tod, loc))
	}
}

func TestDay_MonthBounds(t *testing.T) {
	first, last := NewDay(2024, time.February, 17).MonthBounds()
	if first.String() != "2024-02-01" || last.String() != "2024-02-29" {
		t.Errorf("unexpected bounds %s..%s", first, last)
	}
}

func TestDay_JSONAndBSON(t *testing.T) {
	type doc struct {
		Date Day       `json:"date" bson:"date"`
		Time TimeOfDay `json:"time" bson:"time"`
	}
	in := doc{Date: NewDay(2025, time.July, 4), Time: NewTimeOfDay(9, 5)}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	if string(data) != `{"date":"2025-07-04","time":"09:05"}` {
		t.Errorf("unexpected json %s", data)
	}

	var fromJSON doc
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if fromJSON != in {
		t.Errorf("json round trip mismatch: %+v", fromJSON)
	}

	raw, err := bson.Marshal(in)
	if err != nil {
		t.Fatalf("bson marshal: %v", err)
	}
	if got := bson.Raw(raw).Lookup("date").StringValue(); got != "2025-07-04" {
		t.Errorf("expected date stored as string, got %q", got)
	}

	var fromBSON doc
	if err := bson.Unmarshal(raw, &fromBSON); err != nil {
		t.Fatalf("bson unmarshal: %v", err)
	}
	if fromBSON != in {
		t.Errorf("bson round trip mismatch: %+v", fromBSON)
	}
}

func TestParseTimeRange(t *testing.T) {
	r, err := ParseTimeRange("12:00-13:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Contains(NewTimeOfDay(12, 0)) || !r.Contains(NewTimeOfDay(12, 30)) {
		t.Error("expected break to contain 12:00 and 12:30")
	}
	if r.Contains(NewTimeOfDay(13, 0)) || r.Contains(NewTimeOfDay(11, 30)) {
		t.Error("expected break to exclude 11:30 and 13:00")
	}

	for _, bad := range []string{"13:00-12:00", "12:00", "25:00-26:00", "12:00-12:00"} {
		if _, err := ParseTimeRange(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
