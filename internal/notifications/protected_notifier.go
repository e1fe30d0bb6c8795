package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type circuitState string

const (
	stateClosed   circuitState = "closed"
	stateOpen     circuitState = "open"
	stateHalfOpen circuitState = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // per send
	FailureThreshold int           // consecutive failures before opening
	Cooldown         time.Duration // open -> half_open
	HalfOpenMaxCalls int           // concurrent trial sends while half_open
}

func (c ProtectedNotifierConfig) withDefaults() ProtectedNotifierConfig {
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 15 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// ProtectedNotifier wraps a provider with a per-send timeout and a circuit
// breaker, so a dead provider costs the worker one fast error per job
// instead of a full timeout.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	now   func() time.Time

	onStateChange func(from, to string)

	mu       sync.Mutex
	state    circuitState
	failures int
	openedAt time.Time
	trials   int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: stateClosed,
	}
}

// OnStateChange registers fn to run on every circuit transition. fn is
// called with the breaker's lock held and must not call back into it.
func (n *ProtectedNotifier) OnStateChange(fn func(from, to string)) *ProtectedNotifier {
	n.onStateChange = fn
	return n
}

func (n *ProtectedNotifier) SendAssetStatusNotice(ctx context.Context, in AssetStatusNotice) error {
	return n.guard(ctx, func(sendCtx context.Context) error {
		return n.inner.SendAssetStatusNotice(sendCtx, in)
	})
}

func (n *ProtectedNotifier) SendPaymentReceipt(ctx context.Context, in PaymentReceipt) error {
	return n.guard(ctx, func(sendCtx context.Context) error {
		return n.inner.SendPaymentReceipt(sendCtx, in)
	})
}

func (n *ProtectedNotifier) State() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return string(n.state)
}

func (n *ProtectedNotifier) guard(ctx context.Context, send func(context.Context) error) error {
	trial, ok := n.acquire()
	if !ok {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := send(sendCtx)

	// the caller giving up says nothing about the provider
	if err != nil && ctx.Err() != nil {
		n.release(trial)
		return err
	}

	n.record(trial, err)
	return err
}

// acquire reports whether a send may go out and whether it is a half-open
// trial.
func (n *ProtectedNotifier) acquire() (trial bool, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == stateOpen {
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			return false, false
		}
		n.transition(stateHalfOpen)
	}

	if n.state == stateHalfOpen {
		if n.trials >= n.cfg.HalfOpenMaxCalls {
			return false, false
		}
		n.trials++
		return true, true
	}

	return false, true
}

func (n *ProtectedNotifier) release(trial bool) {
	if !trial {
		return
	}
	n.mu.Lock()
	if n.trials > 0 {
		n.trials--
	}
	n.mu.Unlock()
}

func (n *ProtectedNotifier) record(trial bool, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if trial && n.trials > 0 {
		n.trials--
	}

	if err == nil {
		n.failures = 0
		n.transition(stateClosed)
		return
	}

	n.failures++
	if n.state == stateHalfOpen || n.failures >= n.cfg.FailureThreshold {
		n.openedAt = n.now()
		n.transition(stateOpen)
	}
}

func (n *ProtectedNotifier) transition(to circuitState) {
	from := n.state
	if from == to {
		return
	}
	n.state = to
	if to != stateHalfOpen {
		n.trials = 0
	}
	if n.onStateChange != nil {
		n.onStateChange(string(from), string(to))
	}
}
