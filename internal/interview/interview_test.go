package interview

import (
	"context"
	"errors"
	"testing"
)

type recordingDirectory struct {
	saved []Status
	err   error
}

func (d *recordingDirectory) Candidate(context.Context, int64) (Candidate, error) {
	return Candidate{}, ErrNotFound
}

func (d *recordingDirectory) ListEligible(context.Context, string, int64) ([]Candidate, error) {
	return nil, nil
}

func (d *recordingDirectory) SaveStatus(_ context.Context, s Status) error {
	if d.err != nil {
		return d.err
	}
	d.saved = append(d.saved, s)
	return nil
}

func TestStatusSchedule(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		link    string
		wantErr error
		want    State
	}{
		{name: "Pending With Link", from: Status{CandidateID: 1}, link: "https://meet.google.com/abc", want: Scheduled},
		{name: "Pending Without Link", from: Status{CandidateID: 1}, link: "", wantErr: ErrEmptyMeetLink, want: Pending},
		{
			name:    "Already Scheduled",
			from:    Status{CandidateID: 1, InterviewScheduled: true, MeetLink: "https://meet.google.com/old"},
			link:    "https://meet.google.com/new",
			wantErr: ErrAlreadyScheduled,
			want:    Scheduled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Schedule(tt.link)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			if got.State() != tt.want {
				t.Fatalf("got state %s, want %s", got.State(), tt.want)
			}
			if got.InterviewScheduled != (got.MeetLink != "") {
				t.Fatalf("scheduled without meet link: %+v", got)
			}
		})
	}
}

func TestTrackerMarkScheduled(t *testing.T) {
	dir := &recordingDirectory{}
	tr := NewTracker(dir)
	c := Candidate{ID: 7, Status: Status{CandidateID: 7}}

	got, err := tr.MarkScheduled(context.Background(), c, "https://meet.google.com/xyz")
	if err != nil {
		t.Fatalf("MarkScheduled: %v", err)
	}
	if got.State() != Scheduled || len(dir.saved) != 1 || dir.saved[0] != got {
		t.Fatalf("unexpected result %+v, saved %+v", got, dir.saved)
	}
}

func TestTrackerKeepsPendingOnSaveFailure(t *testing.T) {
	dir := &recordingDirectory{err: errors.New("db down")}
	tr := NewTracker(dir)
	c := Candidate{ID: 7, Status: Status{CandidateID: 7}}

	got, err := tr.MarkScheduled(context.Background(), c, "https://meet.google.com/xyz")
	if err == nil {
		t.Fatal("expected error")
	}
	if got.State() != Pending {
		t.Fatalf("expected Pending, got %s", got.State())
	}
}
