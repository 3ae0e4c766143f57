// Package suspend bridges in-process Resumers to out-of-process callers.
// A stage that defers registers its Resumer with a Broker and hands the
// returned token to whatever will eventually answer (a webhook, a queue
// consumer, an operator). The Broker persists the suspension through a
// SuspensionStore so the token survives inspection across replicas, and
// arms a watchdog that fails the execution if nobody answers in time.
package suspend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/cascadehq/cascade/internal/logging"
	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/ports"
)

// ErrResumeTimeout is the failure delivered to an execution whose suspension
// expired before anyone resumed it.
var ErrResumeTimeout = errors.New("suspend: resume deadline exceeded")

// pendingEntry pairs a live Resumer with its watchdog timer.
type pendingEntry struct {
	resumer domain.Resumer
	timer   *time.Timer
}

// Broker issues resume tokens for suspended executions and routes answers
// back to the owning Resumer.
//
// Resumers are in-process objects, so a Broker can only complete tokens it
// registered itself. The store is still consulted first on Resume and Fail:
// its Claim is the one-shot gate, so a token claimed by another replica (or
// already answered) is refused here too.
type Broker struct {
	store ports.SuspensionStore
	ttl   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEntry

	logger *slog.Logger
}

// Option configures the Broker.
type Option func(*Broker)

// WithTTL sets how long a suspension may stay unanswered before the
// execution is failed with ErrResumeTimeout. Zero disables the watchdog.
func WithTTL(ttl time.Duration) Option {
	return func(b *Broker) {
		b.ttl = ttl
	}
}

// WithLogger configures a logger for the Broker.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

// NewBroker creates a Broker backed by the given store.
func NewBroker(store ports.SuspensionStore, opts ...Option) *Broker {
	b := &Broker{
		store:   store,
		pending: make(map[string]*pendingEntry),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register persists a new suspension and returns its token. The Resumer is
// kept in memory until the token is answered or expires.
func (b *Broker) Register(ctx context.Context, executionID, stage string, r domain.Resumer) (string, error) {
	token := uuid.NewString()

	rec := &domain.Suspension{
		Token:       token,
		ExecutionID: executionID,
		Stage:       stage,
		CreatedAt:   time.Now(),
	}
	if b.ttl > 0 {
		rec.Deadline = rec.CreatedAt.Add(b.ttl)
	}

	if err := b.store.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to persist suspension: %w", err)
	}

	entry := &pendingEntry{resumer: r}
	if b.ttl > 0 {
		entry.timer = time.AfterFunc(b.ttl, func() {
			b.expire(token)
		})
	}

	b.mu.Lock()
	b.pending[token] = entry
	b.mu.Unlock()

	b.logger.Debug("suspension registered",
		"token", token,
		"execution_id", executionID,
		"stage", stage,
	)
	return token, nil
}

// Resume claims the token and resumes the owning execution with the given
// context entries. Unknown, expired, or already-answered tokens return
// domain.ErrSuspensionNotFound.
func (b *Broker) Resume(ctx context.Context, token string, entries ...domain.Entry) error {
	entry, err := b.claim(ctx, token)
	if err != nil {
		return err
	}
	return entry.resumer.Resume(entries...)
}

// Fail claims the token and fails the owning execution with the cause.
func (b *Broker) Fail(ctx context.Context, token string, cause error) error {
	entry, err := b.claim(ctx, token)
	if err != nil {
		return err
	}
	return entry.resumer.Fail(cause)
}

// Pending reports how many suspensions this Broker instance is holding.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// claim wins the one-shot persistent record, then detaches the in-memory
// entry and stops its watchdog.
func (b *Broker) claim(ctx context.Context, token string) (*pendingEntry, error) {
	if _, err := b.store.Claim(ctx, token); err != nil {
		return nil, err
	}

	b.mu.Lock()
	entry, exists := b.pending[token]
	if exists {
		delete(b.pending, token)
	}
	b.mu.Unlock()

	if !exists {
		// Claimed from the store but registered elsewhere. The record is
		// gone, so the answer cannot be routed from this replica.
		return nil, domain.ErrSuspensionNotFound
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	return entry, nil
}

// expire is the watchdog path. It claims the record so a racing Resume
// loses cleanly, then fails the execution.
func (b *Broker) expire(token string) {
	entry, err := b.claim(context.Background(), token)
	if err != nil {
		return // Answered first, nothing to do.
	}

	b.logger.Warn("suspension expired", "token", token)
	if err := entry.resumer.Fail(ErrResumeTimeout); err != nil {
		b.logger.Debug("expired suspension already settled", "token", token, "err", err)
	}
}
