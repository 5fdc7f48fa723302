package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"roster-backend/models"
)

const (
	EventRegistrationSubmitted = "registration.submitted"
	EventRegistrationRejected  = "registration.rejected"
	EventAccountProvisioned    = "account.provisioned"
)

// Event is the payload published for each registration lifecycle change.
// Tokens and credentials never leave the service.
type Event struct {
	Type           string     `json:"type"`
	CompanyID      uuid.UUID  `json:"company_id"`
	CompanyCode    string     `json:"company_code"`
	RegistrationID *uuid.UUID `json:"registration_id,omitempty"`
	AccountID      *uuid.UUID `json:"account_id,omitempty"`
	Email          string     `json:"email"`
	Function       string     `json:"function"`
	EmployeeNumber string     `json:"employee_number,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher writes lifecycle events to Kafka, keyed by company so a
// tenant's events stay ordered within one partition.
type EventPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &EventPublisher{writer: writer, now: time.Now}
}

func (p *EventPublisher) publish(ctx context.Context, event Event) error {
	event.OccurredAt = p.now().UTC()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.CompanyID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "company_id", Value: []byte(event.CompanyID.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event to Kafka: %w", event.Type, err)
	}
	return nil
}

func registrationEvent(eventType string, req *models.RegistrationRequest) Event {
	id := req.ID
	return Event{
		Type:           eventType,
		CompanyID:      req.CompanyID,
		CompanyCode:    req.Company.Code,
		RegistrationID: &id,
		Email:          req.Email,
		Function:       req.Function,
	}
}

// VerificationRequested is covered by the submitted event.
func (p *EventPublisher) VerificationRequested(ctx context.Context, req *models.RegistrationRequest) error {
	return nil
}

func (p *EventPublisher) RegistrationSubmitted(ctx context.Context, req *models.RegistrationRequest, managers []models.User) error {
	return p.publish(ctx, registrationEvent(EventRegistrationSubmitted, req))
}

func (p *EventPublisher) RegistrationRejected(ctx context.Context, req *models.RegistrationRequest) error {
	return p.publish(ctx, registrationEvent(EventRegistrationRejected, req))
}

func (p *EventPublisher) AccountProvisioned(ctx context.Context, account *models.User) error {
	id := account.ID
	return p.publish(ctx, Event{
		Type:           EventAccountProvisioned,
		CompanyID:      account.CompanyID,
		CompanyCode:    account.Company.Code,
		AccountID:      &id,
		Email:          account.Email,
		Function:       account.Function,
		EmployeeNumber: account.EmployeeNumber,
	})
}

func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
