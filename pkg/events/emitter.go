// Package events handles event emission for record lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Event types
const (
	EventTypeClergyCreated  = "clergy.created"
	EventTypeClergyUpdated  = "clergy.updated"
	EventTypeClergyDeleted  = "clergy.deleted"
	EventTypeLineageChanged = "lineage.changed"
)

// Emitter publishes record change events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitClergyCreated emits a clergy created event
func (e *Emitter) EmitClergyCreated(ctx context.Context, c *models.Clergy) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClergyCreated")
	defer span.End()

	return e.emitClergy(ctx, EventTypeClergyCreated, c)
}

// EmitClergyUpdated emits a clergy updated event
func (e *Emitter) EmitClergyUpdated(ctx context.Context, c *models.Clergy) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClergyUpdated")
	defer span.End()

	return e.emitClergy(ctx, EventTypeClergyUpdated, c)
}

func (e *Emitter) emitClergy(ctx context.Context, eventType string, c *models.Clergy) error {
	data, _ := json.Marshal(c)

	event := &kafka.ClergyEvent{
		EventType: eventType,
		ClergyID:  c.ID,
		Name:      c.Name,
		Rank:      c.Rank,
		Data:      data,
	}

	if err := e.producer.PublishClergyEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}

// EmitClergyDeleted emits a clergy deleted event
func (e *Emitter) EmitClergyDeleted(ctx context.Context, clergyID int64) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClergyDeleted")
	defer span.End()

	event := &kafka.ClergyEvent{
		EventType: EventTypeClergyDeleted,
		ClergyID:  clergyID,
	}

	if err := e.producer.PublishClergyEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit clergy.deleted event")
		return err
	}

	return nil
}

// EmitLineageChanged emits a lineage changed event
func (e *Emitter) EmitLineageChanged(ctx context.Context, reason string, clergyID int64) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLineageChanged")
	defer span.End()

	event := &kafka.LineageEvent{
		EventType: EventTypeLineageChanged,
		Reason:    reason,
		ClergyID:  clergyID,
	}

	if err := e.producer.PublishLineageEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit lineage.changed event")
		return err
	}

	return nil
}
