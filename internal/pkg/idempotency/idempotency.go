// Package idempotency guards one-shot operations behind a client supplied key
// whose state lives in Redis.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrAlreadyFailed     = errors.New("idempotency: operation already failed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

// DefaultPrefix namespaces the state keys.
const DefaultPrefix = "wauth:idempotency:"

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

func (s State) String() string {
	return string(s)
}

type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error) error
}

// Options tune how long a key stays locked and how long the outcome is kept.
type Options struct {
	Prefix       string
	LockDuration time.Duration
	StateTTL     time.Duration
}

type StateTracker struct {
	client       redis.Cmdable
	prefix       string
	lockDuration time.Duration
	stateTTL     time.Duration
}

func New(client redis.Cmdable, opts Options) *StateTracker {
	st := &StateTracker{
		client:       client,
		prefix:       opts.Prefix,
		lockDuration: opts.LockDuration,
		stateTTL:     opts.StateTTL,
	}
	if st.prefix == "" {
		st.prefix = DefaultPrefix
	}
	if st.lockDuration <= 0 {
		st.lockDuration = 30 * time.Second
	}
	if st.stateTTL <= 0 {
		st.stateTTL = 24 * time.Hour
	}

	return st
}

// Acquire locks key for the caller and reports StateNone, or returns the
// state recorded by an earlier call.
func (s *StateTracker) Acquire(ctx context.Context, key string) (State, error) {
	fk := s.prefix + key

	for range 2 {
		acquired, err := s.client.SetNX(ctx, fk, StateInProgress.String(), s.lockDuration).Result()
		if err != nil {
			return "", err
		}
		if acquired {
			return StateNone, nil
		}

		result, err := s.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return "", err
		}

		switch State(result) {
		case StateInProgress, StateCompleted, StateFailed:
			return State(result), nil
		default:
			return "", ErrInvalidState
		}
	}

	return "", ErrInvalidState
}

func (s *StateTracker) mark(ctx context.Context, key string, state State) error {
	return s.client.Set(ctx, s.prefix+key, state.String(), s.stateTTL).Err()
}

// Exec runs fn once per key. Later calls with the same key get the
// matching ErrAlready* error until the recorded state expires.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error) error {
	state, err := s.Acquire(ctx, key)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, s.mark(ctx, key, StateFailed))
	}

	return s.mark(ctx, key, StateCompleted)
}
