package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/sightlinehq/sightline/internal/model"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSSubscriberReceivesEnvelope(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(BrandSubject("br-1"))
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	env := &Envelope{
		Event:   KindCreated,
		Payload: &model.FeedEvent{ID: "ev-1", BrandID: "br-1", Workflow: model.WorkflowSystem},
	}
	if err := pub.Publish(context.Background(), CreatedSubject("br-1"), env); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-ch:
		if msg.Subject != "feed.br-1.created" {
			t.Errorf("subject = %q", msg.Subject)
		}
		var got Envelope
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("decoding envelope: %v", err)
		}
		if got.Event != KindCreated || got.Payload == nil || got.Payload.ID != "ev-1" {
			t.Errorf("envelope = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestNATSSubscriberBrandScoping(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(BrandSubject("br-1"))
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	// A message for a different brand must not be delivered.
	other := &Envelope{Event: KindCreated, Payload: &model.FeedEvent{ID: "ev-2", BrandID: "br-2"}}
	if err := pub.Publish(context.Background(), CreatedSubject("br-2"), other); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	mine := &Envelope{Event: KindUpdated, Payload: &model.FeedEvent{ID: "ev-3", BrandID: "br-1"}}
	if err := pub.Publish(context.Background(), UpdatedSubject("br-1"), mine); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-ch:
		var got Envelope
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("decoding envelope: %v", err)
		}
		if got.Payload.ID != "ev-3" {
			t.Errorf("received cross-brand event %q", got.Payload.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scoped message")
	}
}

func TestNATSSubscriberCancel(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(SubjectAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	cancel()

	// Channel should be closed.
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}

	// A second cancel must be a no-op.
	cancel()
}
