package availability

import (
	"iter"
	"time"
)

// Slot DTO
type Slot struct {
	Date    Date  `json:"date"`
	Weekday Day   `json:"day_of_week"`
	Start   Clock `json:"start"`
	End     Clock `json:"end"`
}

// SlotKey identifies a slot independent of its length.
type SlotKey struct {
	Date  Date
	Start Clock
}

func (s Slot) Key() SlotKey { return SlotKey{Date: s.Date, Start: s.Start} }

// Bounds returns the slot as concrete instants in loc.
func (s Slot) Bounds(loc *time.Location) (time.Time, time.Time) {
	return s.Date.At(s.Start, loc), s.Date.At(s.End, loc)
}

// Generate expands p into its slots in (date, start) order. The sequence is
// lazy and finite, and ranging over it again starts from the beginning.
// Each included day is chunked from StartTime; a trailing remainder shorter
// than DurationMinutes is dropped.
func Generate(p Profile) iter.Seq[Slot] {
	days := make(map[time.Weekday]bool, len(p.Days))
	for _, d := range p.Days {
		days[time.Weekday(d)] = true
	}
	length := Clock(p.DurationMinutes)
	step := Clock(p.DurationMinutes + p.BreakMinutes)
	first, last := p.StartDate, p.EndDate

	return func(yield func(Slot) bool) {
		if length <= 0 || step < length || len(days) == 0 {
			return
		}
		for day := first; !day.After(last); day = day.AddDays(1) {
			wd := day.Weekday()
			if !days[wd] {
				continue
			}
			for s := p.StartTime; s+length <= p.EndTime; s += step {
				if !yield(Slot{Date: day, Weekday: Day(wd), Start: s, End: s + length}) {
					return
				}
			}
		}
	}
}

// NextAvailable returns up to count slots of p, in order, whose keys are not
// in booked. A result shorter than count means the profile's window is exhausted.
func NextAvailable(p Profile, booked map[SlotKey]struct{}, count int) []Slot {
	if count <= 0 {
		return nil
	}
	out := make([]Slot, 0, min(count, 64))
	for s := range Generate(p) {
		// skip slots that already have a booking
		if _, ok := booked[s.Key()]; ok {
			continue
		}
		out = append(out, s)
		if len(out) == count {
			break
		}
	}
	return out
}
