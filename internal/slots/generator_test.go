package slots

import (
	"errors"
	"testing"

	"barbersched/pkg/calendar"
)

func tod(t *testing.T, s string) calendar.TimeOfDay {
	t.Helper()
	v, err := calendar.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return v
}

func span(t *testing.T, start, end string) calendar.TimeRange {
	t.Helper()
	return calendar.TimeRange{Start: tod(t, start), End: tod(t, end)}
}

func TestGenerate_LunchBreakExample(t *testing.T) {
	got, err := Generate(span(t, "09:00", "18:00"), 30, []calendar.TimeRange{span(t, "12:00", "13:00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	present := map[string]bool{}
	for _, s := range got {
		present[s.String()] = true
	}

	for _, want := range []string{"09:00", "11:30", "13:00", "17:30"} {
		if !present[want] {
			t.Errorf("expected slot %s to be present", want)
		}
	}
	for _, absent := range []string{"12:00", "12:30", "18:00"} {
		if present[absent] {
			t.Errorf("expected slot %s to be absent", absent)
		}
	}
	if len(got) != 16 {
		t.Errorf("expected 16 slots, got %d", len(got))
	}
}

func TestGenerate_NoSlotInsideAnyBreak(t *testing.T) {
	cases := []struct {
		name     string
		hours    calendar.TimeRange
		duration int
		breaks   []calendar.TimeRange
	}{
		{"quarter hours with two breaks", span(t, "08:00", "20:00"), 15, []calendar.TimeRange{span(t, "10:10", "10:40"), span(t, "14:00", "15:00")}},
		{"odd duration", span(t, "09:00", "17:00"), 25, []calendar.TimeRange{span(t, "12:05", "12:55")}},
		{"break at opening", span(t, "09:00", "12:00"), 30, []calendar.TimeRange{span(t, "09:00", "10:00")}},
		{"break covers the day", span(t, "09:00", "12:00"), 30, []calendar.TimeRange{span(t, "08:00", "13:00")}},
		{"overlapping breaks", span(t, "06:00", "23:00"), 45, []calendar.TimeRange{span(t, "11:00", "12:30"), span(t, "12:00", "13:15")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Generate(tc.hours, tc.duration, tc.breaks)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, s := range got {
				for _, b := range tc.breaks {
					if b.Start <= s && s < b.End {
						t.Errorf("slot %s falls inside break %s", s, b)
					}
				}
				if s.Add(tc.duration) > tc.hours.End {
					t.Errorf("slot %s overruns working hours %s", s, tc.hours)
				}
				if i > 0 && got[i-1] >= s {
					t.Errorf("slots not strictly ordered at %d", i)
				}
			}
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	hours := span(t, "10:00", "19:00")
	breaks := []calendar.TimeRange{span(t, "14:00", "14:30")}

	first, _ := Generate(hours, 20, breaks)
	second, _ := Generate(hours, 20, breaks)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	if _, err := Generate(span(t, "09:00", "18:00"), 0, nil); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := Generate(span(t, "18:00", "09:00"), 30, nil); !errors.Is(err, ErrInvalidWorkingHours) {
		t.Errorf("expected ErrInvalidWorkingHours, got %v", err)
	}
}

func TestCover(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		duration int
		want     []string
	}{
		{"exact multiple", "11:00", 90, []string{"11:00", "11:30", "12:00"}},
		{"single slot", "09:00", 30, []string{"09:00"}},
		{"partial last slot", "09:00", 40, []string{"09:00", "09:30"}},
		{"shorter than a slot", "16:30", 10, []string{"16:30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cover(tod(t, tt.start), tt.duration, 30)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i].String() != tt.want[i] {
					t.Errorf("slot %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}

	if _, err := Cover(tod(t, "09:00"), 0, 30); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration for zero duration, got %v", err)
	}
}
