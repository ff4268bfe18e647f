package availability

import (
	"testing"
	"time"
)

// 2025-01-06 is a Monday.
func weekProfile(t *testing.T, duration, brk int) Profile {
	t.Helper()
	return Profile{
		Days:            []Day{Day(time.Monday), Day(time.Wednesday)},
		StartTime:       9 * 60,
		EndTime:         10 * 60,
		DurationMinutes: duration,
		BreakMinutes:    brk,
		StartDate:       mustDate(t, "2025-01-06"),
		EndDate:         mustDate(t, "2025-01-12"),
	}
}

func collect(p Profile) []Slot {
	var out []Slot
	for s := range Generate(p) {
		out = append(out, s)
	}
	return out
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		brk      int
		want     []string
	}{
		{
			name:     "half hour slots",
			duration: 30,
			want: []string{
				"2025-01-06 09:00-09:30", "2025-01-06 09:30-10:00",
				"2025-01-08 09:00-09:30", "2025-01-08 09:30-10:00",
			},
		},
		{
			name:     "remainder dropped",
			duration: 45,
			want:     []string{"2025-01-06 09:00-09:45", "2025-01-08 09:00-09:45"},
		},
		{
			name:     "break between slots",
			duration: 20,
			brk:      10,
			want: []string{
				"2025-01-06 09:00-09:20", "2025-01-06 09:30-09:50",
				"2025-01-08 09:00-09:20", "2025-01-08 09:30-09:50",
			},
		},
		{
			name:     "duration longer than window",
			duration: 90,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(weekProfile(t, tt.duration, tt.brk))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d slots %v, want %d", len(got), got, len(tt.want))
			}
			for i, s := range got {
				if label := s.Date.String() + " " + s.Start.String() + "-" + s.End.String(); label != tt.want[i] {
					t.Errorf("slot %d = %s, want %s", i, label, tt.want[i])
				}
			}
		})
	}
}

func TestGenerateProperties(t *testing.T) {
	p := Profile{
		Days:            []Day{Day(time.Monday), Day(time.Tuesday), Day(time.Friday)},
		StartTime:       8*60 + 15,
		EndTime:         17 * 60,
		DurationMinutes: 25,
		BreakMinutes:    5,
		StartDate:       mustDate(t, "2025-01-01"),
		EndDate:         mustDate(t, "2025-02-28"),
	}
	var prev *Slot
	seen := map[SlotKey]bool{}
	for s := range Generate(p) {
		if s.Start < p.StartTime || s.End > p.EndTime {
			t.Fatalf("slot %v outside daily window", s)
		}
		if int(s.End-s.Start) != p.DurationMinutes {
			t.Fatalf("slot %v has wrong length", s)
		}
		if s.Date.Before(p.StartDate) || s.Date.After(p.EndDate) {
			t.Fatalf("slot %v outside date window", s)
		}
		if s.Date.Weekday() != time.Weekday(s.Weekday) || !containsDay(p.Days, s.Weekday) {
			t.Fatalf("slot %v on excluded day", s)
		}
		if seen[s.Key()] {
			t.Fatalf("duplicate slot %v", s)
		}
		seen[s.Key()] = true
		if prev != nil {
			if prev.Date == s.Date && int(s.Start-prev.End) != p.BreakMinutes {
				t.Fatalf("gap between %v and %v is not the break", *prev, s)
			}
			if s.Date.Before(prev.Date) || (s.Date == prev.Date && s.Start <= prev.Start) {
				t.Fatalf("slots out of order: %v then %v", *prev, s)
			}
		}
		s := s
		prev = &s
	}
	if len(seen) == 0 {
		t.Fatal("expected slots")
	}
}

func TestGenerateIsLazyAndRestartable(t *testing.T) {
	p := weekProfile(t, 30, 0)
	p.EndDate = mustDate(t, "2035-01-01")

	seq := Generate(p)
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	var first Slot
	for s := range seq {
		first = s
		break
	}
	if first.Date.String() != "2025-01-06" || first.Start != 9*60 {
		t.Fatalf("second range did not restart: %v", first)
	}
}

func TestGenerateDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"no days", func(p *Profile) { p.Days = nil }},
		{"zero duration", func(p *Profile) { p.DurationMinutes = 0 }},
		{"negative break", func(p *Profile) { p.BreakMinutes = -40 }},
		{"inverted dates", func(p *Profile) { p.StartDate, p.EndDate = p.EndDate, p.StartDate }},
		{"window excludes days", func(p *Profile) { p.EndDate = p.StartDate.AddDays(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := weekProfile(t, 30, 0)
			tt.mutate(&p)
			if got := collect(p); len(got) != 0 {
				t.Fatalf("expected no slots, got %v", got)
			}
		})
	}
}

func TestNextAvailable(t *testing.T) {
	p := weekProfile(t, 30, 0)
	monday := mustDate(t, "2025-01-06")
	booked := map[SlotKey]struct{}{
		{Date: monday, Start: 9 * 60}: {},
	}

	tests := []struct {
		name   string
		count  int
		booked map[SlotKey]struct{}
		want   []string
	}{
		{"zero count", 0, nil, nil},
		{"first two", 2, nil, []string{"2025-01-06 09:00", "2025-01-06 09:30"}},
		{"skips booked", 2, booked, []string{"2025-01-06 09:30", "2025-01-08 09:00"}},
		{"window exhausted", 10, booked, []string{"2025-01-06 09:30", "2025-01-08 09:00", "2025-01-08 09:30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAvailable(p, tt.booked, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i, s := range got {
				if label := s.Date.String() + " " + s.Start.String(); label != tt.want[i] {
					t.Errorf("slot %d = %s, want %s", i, label, tt.want[i])
				}
			}
		})
	}
}
