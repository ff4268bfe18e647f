package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/scheduler"
)

type recordingConn struct {
	subject string
	data    []byte
	err     error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return c.err
}

func TestInterviewScheduledPublishesJSON(t *testing.T) {
	conn := &recordingConn{}
	p := NewPublisher(conn, zap.NewNop())
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	sc := scheduler.ScheduledCandidate{
		CandidateID: 7,
		Email:       "c7@example.com",
		Slot:        availability.Slot{Date: availability.DateOf(start), Start: 540, End: 570},
		StartsAt:    start,
		EndsAt:      start.Add(30 * time.Minute),
		EventID:     "evt7",
		MeetLink:    "https://meet.google.com/abc",
	}

	if err := p.InterviewScheduled(context.Background(), "owner-1", sc); err != nil {
		t.Fatalf("InterviewScheduled: %v", err)
	}
	if conn.subject != SubjectInterviewScheduled {
		t.Fatalf("subject = %q", conn.subject)
	}

	var got InterviewScheduledEvent
	if err := json.Unmarshal(conn.data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "interview.scheduled" || got.OwnerID != "owner-1" || got.CandidateID != 7 {
		t.Errorf("unexpected event %+v", got)
	}
	if got.MeetLink != sc.MeetLink || !got.StartsAt.Equal(start) || !got.Timestamp.Equal(fixed) {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestInterviewScheduledPublishError(t *testing.T) {
	boom := errors.New("connection closed")
	p := NewPublisher(&recordingConn{err: boom}, zap.NewNop())

	err := p.InterviewScheduled(context.Background(), "owner-1", scheduler.ScheduledCandidate{CandidateID: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
