package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

// rate limiting of failed logins: 5 failures within a rolling hour lock
// the client out for 15 minutes
const (
	maxFailures     = 5
	failureWindow   = time.Hour
	lockoutDuration = 15 * time.Minute
)

type lockoutState struct {
	// epoch millis of recent failures within the window
	Failures    []int64 `json:"failures"`
	LockedUntil int64   `json:"lockedUntil,omitempty"`
}

// lockoutStore persists lockout state per key.
type lockoutStore interface {
	get(ctx context.Context, key string) (*lockoutState, error)
	put(ctx context.Context, key string, state *lockoutState) error
	delete(ctx context.Context, key string) error
}

// Limiter tracks failed authentication attempts.
type Limiter struct {
	store lockoutStore
	now   func() time.Time
	l     *log.Logger
}

type LimiterOption func(*Limiter)

// WithClock replaces the time source, used in tests.
func WithClock(now func() time.Time) LimiterOption {
	return func(t *Limiter) { t.now = now }
}

func WithLogger(l *log.Logger) LimiterOption {
	return func(t *Limiter) { t.l = l }
}

// NewLimiter creates a limiter with in-memory state.
func NewLimiter(opts ...LimiterOption) *Limiter {
	ret := &Limiter{
		store: &memLockoutStore{states: make(map[string]*lockoutState)},
		now:   time.Now,
		l:     log.Default().Named("auth.lockout"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// NewKVLimiter persists lockout state in a NATS JetStream KV bucket so
// that all instances share it. Entries age out with the failure window.
func NewKVLimiter(conn *nats.Conn, opts ...LimiterOption) (*Limiter, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, err
	}
	kv, err := js.CreateOrUpdateKeyValue(context.Background(),
		jetstream.KeyValueConfig{
			Bucket: "login_lockout",
			TTL:    failureWindow,
		})
	if err != nil {
		return nil, err
	}
	ret := NewLimiter(opts...)
	ret.store = &kvLockoutStore{kv: kv}
	return ret, nil
}

// RecordFailure notes one failed attempt; the fifth failure within the
// rolling window triggers the lockout.
func (t *Limiter) RecordFailure(ctx context.Context, key string) {
	now := t.now()
	state, err := t.store.get(ctx, key)
	if err != nil {
		state = &lockoutState{}
	}
	cutoff := now.Add(-failureWindow).UnixMilli()
	kept := state.Failures[:0]
	for _, f := range state.Failures {
		if f > cutoff {
			kept = append(kept, f)
		}
	}
	state.Failures = append(kept, now.UnixMilli())
	if len(state.Failures) >= maxFailures {
		state.LockedUntil = now.Add(lockoutDuration).UnixMilli()
		t.l.Info("login locked",
			log.String("key", key),
			log.Time("until", time.UnixMilli(state.LockedUntil)))
	}
	if err := t.store.put(ctx, key, state); err != nil {
		t.l.Warn("could not persist lockout state", log.ErrorField(err))
	}
}

// Locked reports whether the key is currently locked out.
func (t *Limiter) Locked(ctx context.Context, key string) bool {
	state, err := t.store.get(ctx, key)
	if err != nil {
		return false
	}
	return state.LockedUntil > t.now().UnixMilli()
}

// Reset clears the state after a successful authentication.
func (t *Limiter) Reset(ctx context.Context, key string) {
	if err := t.store.delete(ctx, key); err != nil {
		t.l.Debug("could not reset lockout state", log.ErrorField(err))
	}
}

type memLockoutStore struct {
	mutex  sync.Mutex
	states map[string]*lockoutState
}

var errNoState = errors.New("no lockout state")

func (s *memLockoutStore) get(_ context.Context, key string) (*lockoutState, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	state, ok := s.states[key]
	if !ok {
		return nil, errNoState
	}
	cp := *state
	cp.Failures = append([]int64{}, state.Failures...)
	return &cp, nil
}

func (s *memLockoutStore) put(_ context.Context, key string, state *lockoutState,
) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.states[key] = state
	return nil
}

func (s *memLockoutStore) delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.states, key)
	return nil
}

type kvLockoutStore struct {
	kv jetstream.KeyValue
}

func (s *kvLockoutStore) get(ctx context.Context, key string) (*lockoutState, error) {
	kve, err := s.kv.Get(ctx, sanitizeKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errNoState
		}
		return nil, err
	}
	var state lockoutState
	if err := json.Unmarshal(kve.Value(), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *kvLockoutStore) put(ctx context.Context, key string, state *lockoutState,
) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.kv.Put(ctx, sanitizeKey(key), data)
	return err
}

func (s *kvLockoutStore) delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, sanitizeKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// NATS KV keys must not contain certain characters (ipv6 colons)
func sanitizeKey(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case ':', '/', ' ':
			out = append(out, '_')
		default:
			out = append(out, key[i])
		}
	}
	return string(out)
}
