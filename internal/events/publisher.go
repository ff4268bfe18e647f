// Package events publishes scheduling notifications to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"interview-scheduler/internal/scheduler"
)

const SubjectInterviewScheduled = "scheduler.interview.scheduled"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	nc     Conn
	close  func()
	logger *zap.Logger
	now    func() time.Time
}

func Connect(natsURL string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("interview-scheduler"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", zap.String("url", natsURL))

	p := NewPublisher(nc, logger)
	p.close = nc.Close
	return p, nil
}

func NewPublisher(nc Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger, now: time.Now}
}

func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}

type InterviewScheduledEvent struct {
	Type        string    `json:"type"`
	OwnerID     string    `json:"owner_id"`
	CandidateID int64     `json:"candidate_id"`
	Email       string    `json:"email"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	EventID     string    `json:"event_id"`
	MeetLink    string    `json:"meet_link"`
	Timestamp   time.Time `json:"timestamp"`
}

func (p *Publisher) InterviewScheduled(_ context.Context, ownerID string, s scheduler.ScheduledCandidate) error {
	event := &InterviewScheduledEvent{
		Type:        "interview.scheduled",
		OwnerID:     ownerID,
		CandidateID: s.CandidateID,
		Email:       s.Email,
		StartsAt:    s.StartsAt,
		EndsAt:      s.EndsAt,
		EventID:     s.EventID,
		MeetLink:    s.MeetLink,
		Timestamp:   p.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.nc.Publish(SubjectInterviewScheduled, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Published interview.scheduled event",
		zap.String("owner_id", ownerID),
		zap.Int64("candidate_id", s.CandidateID))

	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) InterviewScheduled(context.Context, string, scheduler.ScheduledCandidate) error { return nil }
