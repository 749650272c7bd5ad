package services

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/utils"
)

// EventPublisher delivers engine events to dashboards and other services.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// MultiPublisher fans an event out to every publisher and keeps going when
// one of them fails.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.Event) error { return nil }

// emitter stamps and publishes events; delivery failures are logged and
// never fail the operation that produced the event.
type emitter struct {
	publisher EventPublisher
	clock     clockwork.Clock
}

func (e emitter) emit(ctx context.Context, eventType string, data interface{}) {
	event := models.Event{
		Type:       eventType,
		Data:       data,
		OccurredAt: e.clock.Now(),
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"event": eventType,
		}).Errorf("publish event: %v", err)
	}
}
