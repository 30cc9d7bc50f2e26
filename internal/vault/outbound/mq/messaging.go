package mq

import (
	"context"
	"encoding/json"

	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/messaging"
	"github.com/watarui/wauth/internal/shared/event"
	"github.com/watarui/wauth/internal/vault/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
	topic  string
}

// NewMessaging publishes site events on topic, or event.SiteDestination when empty.
func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation, topic string) *Messaging {
	if topic == "" {
		topic = event.SiteDestination
	}
	if ins == nil {
		ins = instrument.NewNoop()
	}
	return &Messaging{client: client, ins: ins, topic: topic}
}

func (m *Messaging) PublishSiteEvent(ctx context.Context, ev entity.SiteEvent) error {
	ctx, span := m.ins.Tracer("vault.outbound.mq").Start(ctx, "PublishSiteEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("event.type", string(ev.Type)),
		attribute.String("messaging.destination", m.topic),
	)

	body, err := json.Marshal(event.SiteMessage{
		ID:         ev.ID,
		Type:       string(ev.Type),
		SiteName:   ev.SiteName,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	msg := messaging.Event{Key: ev.SiteName, Body: body}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		msg.Attributes = map[string]string{keyOfCorrelationID: cID}
	}
	if err := m.client.Publish(ctx, m.topic, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
