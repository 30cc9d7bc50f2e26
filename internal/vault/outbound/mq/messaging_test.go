package mq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/messaging"
	"github.com/watarui/wauth/internal/shared/event"
	"github.com/watarui/wauth/internal/vault/entity"
)

func TestMessaging_PublishSiteEvent(t *testing.T) {
	mem := messaging.NewMemory()
	m := NewMessaging(mem, nil, "")
	ctx := instrument.SetCorrelationID(context.Background(), "cid-42")

	err := m.PublishSiteEvent(ctx, entity.SiteEvent{
		ID:         1234567890123,
		Type:       entity.EventSiteAdded,
		SiteName:   "github.com",
		OccurredAt: 1700000000,
	})
	if err != nil {
		t.Fatalf("PublishSiteEvent() error = %v", err)
	}

	msgs := mem.Messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Topic != event.SiteDestination {
		t.Fatalf("topic = %q", got.Topic)
	}
	if got.Event.Key != "github.com" {
		t.Fatalf("key = %q", got.Event.Key)
	}
	if len(got.Event.Attributes) != 1 || got.Event.Attributes["cID"] != "cid-42" {
		t.Fatalf("attributes = %+v", got.Event.Attributes)
	}

	want := `{"id":"1234567890123","type":"site.added","site_name":"github.com","occurred_at":1700000000}`
	if string(got.Event.Body) != want {
		t.Fatalf("body = %s, want %s", got.Event.Body, want)
	}

	var decoded event.SiteMessage
	if err := json.Unmarshal(got.Event.Body, &decoded); err != nil || decoded.ID != 1234567890123 {
		t.Fatalf("decode = %+v, %v", decoded, err)
	}
}

func TestMessaging_PublishError(t *testing.T) {
	mem := messaging.NewMemory()
	_ = mem.Close()

	m := NewMessaging(mem, instrument.NewNoop(), "custom.topic")
	err := m.PublishSiteEvent(context.Background(), entity.SiteEvent{Type: entity.EventSiteDeleted, SiteName: "x"})
	if err == nil {
		t.Fatalf("PublishSiteEvent() error = nil, want error")
	}
}
