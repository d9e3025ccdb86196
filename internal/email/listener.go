package email

import (
	"context"
	"encoding/json"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/pkg/logger"
	"github.com/wardline/ward-api/pkg/messaging"
)

// Listener consumes assignment events off the broker and mails the
// configured ward operations address. A send failure is logged and
// dropped; the event stream is not a delivery queue for email.
type Listener struct {
	broker   messaging.Broker
	svc      Service
	channel  string
	notifyTo string
	logger   *logger.Logger
}

func NewListener(broker messaging.Broker, svc Service, channel, notifyTo string, log *logger.Logger) *Listener {
	return &Listener{
		broker:   broker,
		svc:      svc,
		channel:  channel,
		notifyTo: notifyTo,
		logger:   log,
	}
}

func (l *Listener) Start(ctx context.Context) error {
	if l.notifyTo == "" {
		l.logger.Info("email listener disabled, no notify address configured")
		return nil
	}

	messages, err := l.broker.Subscribe(ctx, l.channel)
	if err != nil {
		return err
	}

	l.logger.Info("email listener started", "channel", l.channel)
	for raw := range messages {
		l.handle(ctx, raw)
	}
	return nil
}

func (l *Listener) handle(ctx context.Context, raw []byte) {
	var event model.OutboxEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		l.logger.Error(err, "failed to decode broker message")
		return
	}

	var err error
	switch event.EventType {
	case model.EventAssignmentCreated:
		var a model.BedAssignment
		if err = json.Unmarshal(event.Payload, &a); err == nil {
			err = l.svc.SendAdmissionNotice(ctx, l.notifyTo, event.TenantID, a.BedID.String())
		}
	case model.EventAssignmentClosed:
		var a model.BedAssignment
		if err = json.Unmarshal(event.Payload, &a); err == nil {
			err = l.svc.SendDischargeNotice(ctx, l.notifyTo, event.TenantID, a.ID.String())
		}
	default:
		return
	}

	if err != nil {
		l.logger.Error(err, "failed to send notice",
			"event_type", event.EventType,
			"tenant_id", event.TenantID)
	}
}
