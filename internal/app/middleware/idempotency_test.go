package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"rentverse/internal/app/commands"
)

type replayCommand struct {
	id  string
	key string
}

func (c replayCommand) Key() string            { return "test.replay" }
func (c replayCommand) IdempotencyKey() string { return c.key }
func (c replayCommand) ResultPrototype() any   { return &replayResult{} }

type replayResult struct {
	Value string `json:"value"`
}

type plainCommand struct{}

func (plainCommand) Key() string { return "test.plain" }

type memoryStore struct {
	records map[string]IdempotencyRecord
}

func (s *memoryStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *memoryStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	if s.records == nil {
		s.records = map[string]IdempotencyRecord{}
	}
	s.records[rec.Key] = rec
	return nil
}

func countingBus(calls *int, result any, err error) commands.Bus {
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test.replay", func(ctx context.Context, cmd commands.Command) (any, error) {
		*calls++
		return result, err
	})
	bus.RegisterRaw("test.plain", func(ctx context.Context, cmd commands.Command) (any, error) {
		*calls++
		return result, err
	})
	return bus
}

func TestIdempotencyReplaysResult(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, &replayResult{Value: "first"}, nil), Idempotency(&memoryStore{}, nil))

	cmd := replayCommand{id: "1", key: "key-1"}
	first, err := bus.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := bus.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if first.(*replayResult).Value != second.(*replayResult).Value {
		t.Errorf("replayed result differs: %v vs %v", first, second)
	}
}

func TestIdempotencyReplaysError(t *testing.T) {
	calls := 0
	failure := errors.New("boom")
	bus := ChainCommands(countingBus(&calls, nil, failure), Idempotency(&memoryStore{}, nil))

	cmd := replayCommand{id: "1", key: "key-1"}
	if _, err := bus.Dispatch(context.Background(), cmd); err == nil {
		t.Fatal("expected error")
	}
	_, err := bus.Dispatch(context.Background(), cmd)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("replayed err = %v", err)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotencyReplaysSentinelIdentity(t *testing.T) {
	sentinel := errors.New("lease: requested dates conflict with an existing lease")
	tests := []struct {
		name    string
		failure error
	}{
		{name: "bare sentinel", failure: sentinel},
		{name: "wrapped sentinel", failure: fmt.Errorf("%w: property prop-1", sentinel)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			bus := ChainCommands(countingBus(&calls, nil, tc.failure), Idempotency(&memoryStore{}, nil, sentinel))

			cmd := replayCommand{id: "1", key: "key-1"}
			if _, err := bus.Dispatch(context.Background(), cmd); !errors.Is(err, sentinel) {
				t.Fatalf("first err = %v, want sentinel", err)
			}
			_, err := bus.Dispatch(context.Background(), cmd)
			if !errors.Is(err, sentinel) {
				t.Fatalf("replayed err = %v, lost sentinel identity", err)
			}
			if err.Error() != tc.failure.Error() {
				t.Errorf("replayed message = %q, want %q", err.Error(), tc.failure.Error())
			}
			if calls != 1 {
				t.Errorf("handler ran %d times, want 1", calls)
			}
		})
	}
}

func TestIdempotencySkipsBlankKey(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, &replayResult{}, nil), Idempotency(&memoryStore{}, nil))

	cmd := replayCommand{id: "1"}
	for i := 0; i < 2; i++ {
		if _, err := bus.Dispatch(context.Background(), cmd); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if calls != 2 {
		t.Errorf("handler ran %d times, want 2 without a key", calls)
	}
}

func TestIdempotencyIgnoresPlainCommands(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, nil, nil), Idempotency(&memoryStore{}, nil))

	for i := 0; i < 2; i++ {
		if _, err := bus.Dispatch(context.Background(), plainCommand{}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}
