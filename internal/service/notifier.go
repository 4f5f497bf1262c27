package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/observability"
)

// DecisionEvent describes an applied approve or reject.
type DecisionEvent struct {
	ApplicationID  uint      `json:"application_id"`
	ReferenceID    string    `json:"reference_id"`
	Kind           string    `json:"kind"`
	SocietyName    string    `json:"society_name"`
	ApplicantName  string    `json:"applicant_name"`
	ApplicantEmail string    `json:"applicant_email"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	Decision       string    `json:"decision"`
	Reason         string    `json:"reason,omitempty"`
	ActorName      string    `json:"actor_name"`
	ActorRole      string    `json:"actor_role"`
	DecidedAt      time.Time `json:"decided_at"`
}

// DecisionNotifier tells the outside world about status changes.
type DecisionNotifier interface {
	Notify(ctx context.Context, event DecisionEvent) error
}

// LogDecisionNotifier logs decisions.
type LogDecisionNotifier struct {
	logger zerolog.Logger
}

// NewLogDecisionNotifier constructs a logging notifier.
func NewLogDecisionNotifier(logger zerolog.Logger) *LogDecisionNotifier {
	return &LogDecisionNotifier{logger: logger.With().Str("component", "decision_notifier").Logger()}
}

// Notify logs the event and never fails.
func (n *LogDecisionNotifier) Notify(ctx context.Context, event DecisionEvent) error {
	n.logger.Info().
		Str("reference_id", event.ReferenceID).
		Str("kind", event.Kind).
		Str("status", event.Status).
		Str("applicant_email", maskEmailAddress(event.ApplicantEmail)).
		Str("actor_role", event.ActorRole).
		Msg("application decision recorded")
	return nil
}

// NATSDecisionNotifier publishes decisions as JSON on a NATS subject.
type NATSDecisionNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSDecisionNotifier constructs the NATS publisher. A nil connection makes Notify a no-op.
func NewNATSDecisionNotifier(conn *nats.Conn, subject string) *NATSDecisionNotifier {
	if subject == "" {
		subject = "sms.applications.decisions"
	}
	return &NATSDecisionNotifier{conn: conn, subject: subject}
}

// Notify publishes the event.
func (n *NATSDecisionNotifier) Notify(ctx context.Context, event DecisionEvent) error {
	if n.conn == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.subject+"."+event.Kind, payload)
}

// MultiDecisionNotifier fans out to every notifier and joins their errors.
type MultiDecisionNotifier []DecisionNotifier

// Notify calls every notifier.
func (m MultiDecisionNotifier) Notify(ctx context.Context, event DecisionEvent) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			observability.NotificationFailures().WithLabelValues(notifierName(notifier)).Inc()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notifierName(n DecisionNotifier) string {
	switch n.(type) {
	case *NATSDecisionNotifier:
		return "nats"
	case *LogDecisionNotifier:
		return "log"
	}
	return "other"
}
