package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rmacdonaldsmith/cnotify-go/internal/logging"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/gateway"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/topics"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/topicstore"
)

// State is the coordinator lifecycle state.
type State int

const (
	// StateIdle is the initial state.
	StateIdle State = iota

	// StateWaitingForToken means a subscription attempt is polling for a
	// device token, or gave up doing so.
	StateWaitingForToken

	// StateReconciled is terminal: topics were reconciled once and further
	// attempts are no-ops.
	StateReconciled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWaitingForToken:
		return "WAITING_FOR_TOKEN"
	case StateReconciled:
		return "RECONCILED"
	default:
		return "UNKNOWN"
	}
}

// ErrEmptyToken is reported when the provider yields neither a token nor an
// error.
var ErrEmptyToken = errors.New("provider returned no token and no error")

// Stats counts the work a coordinator issued.
type Stats struct {
	Attempts     int64
	Subscribes   int64
	Unsubscribes int64
	Saves        int64
	Failures     int64
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logging.For(logger, logging.ComponentCoordinator)
	}
}

// WithScheduler replaces the retry timer source.
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) {
		c.scheduler = s
	}
}

// Coordinator reconciles the computed topic set with the persisted one and
// drives subscribe/unsubscribe calls on the gateway. It is single-shot: once
// a reconciliation pass completes every later trigger is a no-op.
//
// It is safe for concurrent use; permission, registration and retry triggers
// may race into it from different goroutines.
type Coordinator struct {
	config    Config
	generator *topics.Generator
	store     topicstore.Store
	gateway   gateway.Gateway
	scheduler Scheduler
	logger    *zap.Logger

	// reconcileMu serializes reconciliation passes and guards testing.
	// It is held across store I/O, so accessors never take it.
	reconcileMu sync.Mutex
	testing     bool

	// mu guards state and subscribed
	mu         sync.Mutex
	state      State
	subscribed bool

	timerMu     sync.Mutex
	timers      map[uint64]Timer
	nextTimerID uint64
	stopped     bool

	// pending tracks result handlers and scheduled retries
	pending sync.WaitGroup

	attempts     atomic.Int64
	subscribes   atomic.Int64
	unsubscribes atomic.Int64
	saves        atomic.Int64
	failures     atomic.Int64
}

// New creates a coordinator. store and gw are required.
func New(config Config, store topicstore.Store, gw gateway.Gateway, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, fmt.Errorf("topic store cannot be nil")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.SetDefaults()

	c := &Coordinator{
		config:    config,
		generator: topics.NewGenerator(),
		store:     store,
		gateway:   gw,
		scheduler: TimeScheduler{},
		logger:    zap.NewNop(),
		timers:    make(map[uint64]Timer),
		testing:   config.Testing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnPermissionGranted is the trigger for the notification permission grant.
func (c *Coordinator) OnPermissionGranted(ctx context.Context) {
	c.logger.Debug("Permission granted, attempting subscription")
	c.AttemptSubscription(ctx, 1)
}

// OnDeviceToken is the trigger for a device token delivered by the platform.
// The token is handed to the gateway first when it accepts one.
func (c *Coordinator) OnDeviceToken(ctx context.Context, token string) {
	if sink, ok := c.gateway.(gateway.TokenSink); ok {
		sink.SetDeviceToken(token)
	}
	c.logger.Debug("Device token received, attempting subscription")
	c.AttemptSubscription(ctx, 1)
}

// AttemptSubscription polls the gateway for a device token. Without one it
// schedules attempt+1 after the retry delay, up to MaxAttempts attempts in
// total. With one it fetches the token and reconciles topics. It never
// blocks on the network.
func (c *Coordinator) AttemptSubscription(ctx context.Context, attempt int) {
	if ctx.Err() != nil {
		c.logger.Debug("Context done, dropping subscription attempt", zap.Int("attempt", attempt))
		return
	}

	c.mu.Lock()
	if c.subscribed {
		c.mu.Unlock()
		c.logger.Debug("Topics already reconciled, ignoring attempt", zap.Int("attempt", attempt))
		return
	}
	c.state = StateWaitingForToken
	c.mu.Unlock()

	if attempt > c.config.MaxAttempts {
		c.logger.Warn("Subscription attempts exhausted",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.config.MaxAttempts))
		return
	}
	c.attempts.Add(1)

	if !c.gateway.TokenAvailable() {
		if attempt >= c.config.MaxAttempts {
			c.logger.Warn("No device token after max attempts, waiting for an external trigger",
				zap.Int("attempts", attempt))
			return
		}
		c.logger.Debug("Device token not available yet, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", c.config.RetryDelay))
		c.schedule(func() {
			c.AttemptSubscription(ctx, attempt+1)
		})
		return
	}

	results := c.gateway.FetchToken(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		var res gateway.TokenResult
		select {
		case r, ok := <-results:
			if !ok {
				r.Err = ErrEmptyToken
			}
			res = r
		case <-ctx.Done():
			return
		}

		switch {
		case res.Err != nil:
			c.failures.Add(1)
			c.logger.Error("Failed to fetch registration token", zap.Error(res.Err))
		case res.Token == "":
			c.logger.Warn("Registration token fetch returned neither token nor error")
		default:
			c.logger.Debug("Registration token ready", zap.Int("attempt", attempt))
			c.ReconcileTopics(ctx)
		}
	}()
}

// ReconcileTopics converges the gateway subscriptions on the computed topic
// set. Only the first call does any work; later calls log and return.
func (c *Coordinator) ReconcileTopics(ctx context.Context) {
	c.reconcileMu.Lock()
	defer c.reconcileMu.Unlock()

	if c.Subscribed() {
		c.logger.Info("Topics already reconciled, skipping")
		return
	}

	locale := c.config.Locale
	desired := c.generator.Compute(locale.Language, locale.Country, locale.AppVersion)
	desiredSet := topics.NewSet(desired...)

	previous, err := c.store.Load(ctx)
	if err != nil {
		c.failures.Add(1)
		c.logger.Warn("Failed to load persisted topics, treating as empty", zap.Error(err))
		previous = nil
	}
	previousSet := topics.NewSet(previous...)

	if desiredSet.Equal(previousSet) {
		c.logger.Info("Already subscribed to computed topics", zap.Strings("topics", topics.Strings(desired)))
	} else {
		for _, topic := range previousSet.Difference(desiredSet) {
			c.unsubscribe(ctx, topic)
		}

		c.saves.Add(1)
		if err := c.store.Save(ctx, topics.Strings(desired)); err != nil {
			c.failures.Add(1)
			c.logger.Error("Failed to persist topics", zap.Error(err))
		}

		for _, topic := range desired {
			c.subscribe(ctx, topic.String())
		}
		c.logger.Info("Reconciled topics",
			zap.Strings("previous", previousSet.Sorted()),
			zap.Strings("desired", topics.Strings(desired)))
	}

	if c.testing {
		c.subscribe(ctx, topics.DebugTopic)
	}

	c.mu.Lock()
	c.subscribed = true
	c.state = StateReconciled
	c.mu.Unlock()
}

// EnableTesting turns on the debug topic. Once a pass has completed the
// topic is subscribed right away; before that the pass adds it, so no call
// is issued without a device token.
func (c *Coordinator) EnableTesting(ctx context.Context) {
	c.reconcileMu.Lock()
	defer c.reconcileMu.Unlock()

	c.testing = true
	if !c.Subscribed() {
		c.logger.Debug("Debug topic deferred until topics are reconciled")
		return
	}
	c.subscribe(ctx, topics.DebugTopic)
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribed reports whether a reconciliation pass completed.
func (c *Coordinator) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribed
}

// Stats returns a snapshot of issued operations.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Attempts:     c.attempts.Load(),
		Subscribes:   c.subscribes.Load(),
		Unsubscribes: c.unsubscribes.Load(),
		Saves:        c.saves.Load(),
		Failures:     c.failures.Load(),
	}
}

// Wait blocks until every outstanding result handler and scheduled retry
// has finished.
func (c *Coordinator) Wait() {
	c.pending.Wait()
}

// Stop cancels pending retries. In-flight gateway calls are left to finish.
// Calling Stop more than once is safe.
func (c *Coordinator) Stop() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	c.stopped = true
	for id, t := range c.timers {
		if t.Stop() {
			c.pending.Done()
		}
		delete(c.timers, id)
	}
}

func (c *Coordinator) schedule(f func()) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.stopped {
		return
	}

	id := c.nextTimerID
	c.nextTimerID++
	c.pending.Add(1)
	c.timers[id] = c.scheduler.AfterFunc(c.config.RetryDelay, func() {
		c.timerMu.Lock()
		delete(c.timers, id)
		c.timerMu.Unlock()

		defer c.pending.Done()
		f()
	})
}

func (c *Coordinator) subscribe(ctx context.Context, topic string) {
	c.subscribes.Add(1)
	c.await(ctx, "subscribe", topic, c.gateway.Subscribe(ctx, topic))
}

func (c *Coordinator) unsubscribe(ctx context.Context, topic string) {
	c.unsubscribes.Add(1)
	c.await(ctx, "unsubscribe", topic, c.gateway.Unsubscribe(ctx, topic))
}

// await reports the outcome of one gateway call without blocking the caller.
func (c *Coordinator) await(ctx context.Context, op, topic string, result <-chan error) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		select {
		case err := <-result:
			if err != nil {
				c.failures.Add(1)
				c.logger.Error("Topic operation failed",
					zap.String("op", op),
					zap.String("topic", topic),
					zap.Error(err))
				return
			}
			c.logger.Debug("Topic operation succeeded", zap.String("op", op), zap.String("topic", topic))
		case <-ctx.Done():
			c.logger.Debug("Context done before topic operation completed",
				zap.String("op", op),
				zap.String("topic", topic))
		}
	}()
}
