package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type stubStore struct {
	doc        *EventDocument
	sentIDs    []string
	failedIDs  []string
	failedNext []time.Time
	failedMsgs []string
}

func (s *stubStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	doc := s.doc
	s.doc = nil
	return doc, nil
}

func (s *stubStore) MarkSent(ctx context.Context, id string) error {
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.failedIDs = append(s.failedIDs, id)
	s.failedNext = append(s.failedNext, next)
	s.failedMsgs = append(s.failedMsgs, errMsg)
	return nil
}

type stubProducer struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
	calls   int
	err     error
}

func (p *stubProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.calls++
	p.topic = topic
	p.key = key
	p.payload = payload
	p.headers = headers
	return p.err
}

func claimableDoc() *EventDocument {
	return &EventDocument{
		ID:         "evt-1",
		Name:       "lease.requested",
		Payload:    []byte(`{"lease_id":"lease-1"}`),
		OccurredAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  "lease-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestWorkerPublishesCloudEvent(t *testing.T) {
	store := &stubStore{doc: claimableDoc()}
	producer := &stubProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "stage.", ID: "worker-1"}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if producer.calls != 1 {
		t.Fatalf("publish calls = %d, want 1", producer.calls)
	}
	if producer.topic != "stage.lease.events.v1" {
		t.Errorf("topic = %s, want stage.lease.events.v1", producer.topic)
	}
	if producer.key != "lease-1" {
		t.Errorf("key = %s, want aggregate id", producer.key)
	}
	if producer.headers["content-type"] != "application/cloudevents+json" {
		t.Errorf("content-type = %s", producer.headers["content-type"])
	}
	if producer.headers["traceparent"] != "00-abc-def-01" {
		t.Error("traceparent header not forwarded")
	}

	var envelope map[string]any
	if err := json.Unmarshal(producer.payload, &envelope); err != nil {
		t.Fatalf("envelope not json: %v", err)
	}
	if envelope["specversion"] != "1.0" {
		t.Errorf("specversion = %v", envelope["specversion"])
	}
	if envelope["type"] != "lease.requested.v1" {
		t.Errorf("type = %v", envelope["type"])
	}
	if envelope["source"] != "app://rentverse" {
		t.Errorf("source = %v", envelope["source"])
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok || data["lease_id"] != "lease-1" {
		t.Errorf("data = %v", envelope["data"])
	}

	if len(store.sentIDs) != 1 || store.sentIDs[0] != "evt-1" {
		t.Errorf("sent ids = %v, want [evt-1]", store.sentIDs)
	}
	if len(store.failedIDs) != 0 {
		t.Errorf("unexpected failures: %v", store.failedIDs)
	}
}

func TestWorkerMarksFailedOnPublishError(t *testing.T) {
	doc := claimableDoc()
	doc.Attempts = 1
	store := &stubStore{doc: doc}
	producer := &stubProducer{err: errors.New("broker down")}
	backoff := []time.Duration{time.Second, time.Minute}
	w := &Worker{Store: store, Producer: producer, Backoff: backoff}

	before := time.Now()
	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("publish failure must not stop the worker: %v", err)
	}
	if len(store.sentIDs) != 0 {
		t.Errorf("marked sent despite publish failure: %v", store.sentIDs)
	}
	if len(store.failedIDs) != 1 || store.failedMsgs[0] != "broker down" {
		t.Fatalf("failed = %v msgs = %v", store.failedIDs, store.failedMsgs)
	}
	// Second attempt uses the second backoff step.
	next := store.failedNext[0]
	if next.Before(before.Add(backoff[1])) || next.After(time.Now().Add(backoff[1])) {
		t.Errorf("next retry = %v, want about %v after now", next, backoff[1])
	}
}

func TestWorkerMarksFailedOnBadPayload(t *testing.T) {
	doc := claimableDoc()
	doc.Payload = []byte("not-json")
	store := &stubStore{doc: doc}
	producer := &stubProducer{}
	w := &Worker{Store: store, Producer: producer}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if producer.calls != 0 {
		t.Error("published a record with undecodable payload")
	}
	if len(store.failedIDs) != 1 {
		t.Fatalf("failed ids = %v, want one", store.failedIDs)
	}
}

func TestWorkerIdlesOnEmptyOutbox(t *testing.T) {
	store := &stubStore{}
	producer := &stubProducer{}
	w := &Worker{Store: store, Producer: producer}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if producer.calls != 0 || len(store.sentIDs) != 0 || len(store.failedIDs) != 0 {
		t.Error("empty claim must be a no-op")
	}
}

func TestWorkerRunStopsOnContextCancel(t *testing.T) {
	w := &Worker{Store: &stubStore{}, Producer: &stubProducer{}, Interval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
