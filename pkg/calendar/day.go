package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const DayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid calendar day")

// Day is a calendar date with no time-of-day and no location. It is stored
// and transported as "YYYY-MM-DD", so lexical order equals calendar order.
type Day struct {
	year  int
	month time.Month
	day   int
}

func NewDay(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day{year: t.Year(), month: t.Month(), day: t.Day()}
}

func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return Day{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// DayOf returns the calendar day t falls on in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return Day{year: t.Year(), month: t.Month(), day: t.Day()}
}

// Split converts a timestamp into the calendar day and time of day it
// represents in loc.
func Split(t time.Time, loc *time.Location) (Day, TimeOfDay) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return DayOf(local, loc), NewTimeOfDay(local.Hour(), local.Minute())
}

func (d Day) Year() int { return d.year }
func (d Day) Month() time.Month { return d.month }
func (d Day) DayOfMonth() int { return d.day }
func (d Day) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }
func (d Day) Weekday() time.Weekday { return d.utc().Weekday() }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

func (d Day) AddDays(n int) Day {
	return NewDay(d.year, d.month, d.day+n)
}

func (d Day) Compare(other Day) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

func (d Day) Before(other Day) bool { return d.Compare(other) < 0 }
func (d Day) After(other Day) bool { return d.Compare(other) > 0 }
func (d Day) Equal(other Day) bool { return d.Compare(other) == 0 }

// Within reports whether d lies in [start, end], both ends inclusive.
func (d Day) Within(start, end Day) bool {
	return !d.Before(start) && !d.After(end)
}

// MonthBounds returns the first and last day of d's month.
func (d Day) MonthBounds() (Day, Day) {
	first := NewDay(d.year, d.month, 1)
	last := NewDay(d.year, d.month+1, 0)
	return first, last
}

// Start returns midnight of d in loc. Only the storage boundary should need
// this, to turn a day into a timestamp range for externally-owned records.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// At returns the instant of tod on d in loc.
func (d Day) At(tod TimeOfDay, loc *time.Location) time.Time {
	return d.Start(loc).Add(time.Duration(tod.Minutes()) * time.Minute)
}

func (d Day) utc() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Range returns every day in [start, end], both ends inclusive.
func Range(start, end Day) []Day {
	if end.Before(start) {
		return nil
	}
	var days []Day
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

func (d *Day) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*d = Day{}
		return nil
	}
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("%w: cannot decode bson type %s", ErrInvalidDay, t)
	}
	return d.UnmarshalText([]byte(s))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
