// Package ratelimit provides sliding-window admission control keyed by
// client identity and operation class. State is in-memory only and lives
// for the process lifetime; denials are their own channel, distinct from
// acquisition error kinds, because they happen before acquisition begins.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Op is the operation class being admitted.
type Op int

const (
	OpValidate Op = iota
	OpExtract
	OpUpload
)

func (o Op) String() string {
	switch o {
	case OpValidate:
		return "validate"
	case OpExtract:
		return "extract"
	case OpUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// Budget is the admission budget for one operation class.
type Budget struct {
	Max    int
	Window time.Duration
}

// DefaultBudgets mirrors the product's long-standing per-minute limits:
// validation is cheap, extraction is expensive, upload the most.
func DefaultBudgets() map[Op]Budget {
	return map[Op]Budget{
		OpValidate: {Max: 30, Window: time.Minute},
		OpExtract:  {Max: 10, Window: time.Minute},
		OpUpload:   {Max: 5, Window: time.Minute},
	}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int           // budget left after this admission (when allowed)
	RetryAfter time.Duration // wait until the oldest in-window entry expires (when denied)
}

// DeniedError is returned by callers that convert a denial into an error.
type DeniedError struct {
	Op         Op
	RetryAfter time.Duration
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Op, e.RetryAfter.Round(time.Millisecond))
}

type key struct {
	client string
	op     Op
}

// Limiter is a sliding-window counter per (clientKey, op) pair. Safe for
// concurrent use; one request's admission never races another's.
type Limiter struct {
	mu      sync.Mutex
	budgets map[Op]Budget
	windows map[key][]time.Time
	now     func() time.Time // injectable clock for tests
}

// New creates a Limiter with the given budgets. Nil budgets fall back to
// DefaultBudgets.
func New(budgets map[Op]Budget) *Limiter {
	if budgets == nil {
		budgets = DefaultBudgets()
	}
	return &Limiter{
		budgets: budgets,
		windows: make(map[key][]time.Time),
		now:     time.Now,
	}
}

// Admit evicts out-of-window timestamps for the pair, then allows the
// request iff the remaining count is under budget, recording the new
// timestamp on allow. Denials carry the time until the oldest in-window
// entry leaves the window.
func (l *Limiter) Admit(clientKey string, op Op) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	budget, ok := l.budgets[op]
	if !ok || budget.Max <= 0 {
		return Decision{Allowed: true}
	}

	now := l.now()
	k := key{client: clientKey, op: op}
	cutoff := now.Add(-budget.Window)

	win := l.windows[k]
	// Timestamps are appended in order, so eviction is a prefix trim.
	i := 0
	for i < len(win) && !win[i].After(cutoff) {
		i++
	}
	win = win[i:]

	if len(win) >= budget.Max {
		l.windows[k] = win
		return Decision{
			Allowed:    false,
			RetryAfter: win[0].Add(budget.Window).Sub(now),
		}
	}

	win = append(win, now)
	l.windows[k] = win
	return Decision{Allowed: true, Remaining: budget.Max - len(win)}
}
