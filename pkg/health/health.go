// Package health serves liveness and readiness probes for the catalog server.
//
// Every check runs in its own goroutine. A check turns unhealthy after
// FailureThreshold consecutive failures and healthy again after
// SuccessThreshold consecutive successes, so a single slow ping does not flap
// the probe. Optional checks are reported but never fail a probe.
package health

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Kind selects the probe a check contributes to.
type Kind uint8

const (
	Liveness Kind = iota
	Readiness
)

// CheckOptions tunes a single check. Zero values get defaults: one second
// timeout, three failures to turn unhealthy, one success to recover.
type CheckOptions struct {
	Timeout          time.Duration
	FailureThreshold int
	SuccessThreshold int
	// Optional checks show up as "degraded" without failing the probe.
	Optional bool
}

func (o *CheckOptions) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = time.Second
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 3
	}
	if o.SuccessThreshold <= 0 {
		o.SuccessThreshold = 1
	}
}

// check is one registered CheckFunc with its state. run is only called from
// a single goroutine, so the counters need no locking; healthy and lastErr
// are read by HTTP handlers.
type check struct {
	name string
	opts CheckOptions
	fn   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func newCheck(name string, opts CheckOptions, fn CheckFunc) *check {
	opts.setDefaults()
	c := &check{name: name, opts: opts, fn: fn}
	c.healthy.Store(true)
	return c
}

func (c *check) isHealthy() bool {
	return c.healthy.Load()
}

func (c *check) getLastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= c.opts.FailureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.oks++
	if c.oks >= c.opts.SuccessThreshold {
		c.healthy.Store(true)
	}
}

// Health holds the registered checks and the manual readiness switch.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks [2][]*check
	cancel context.CancelFunc
}

// New creates a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddCheck registers a check on the given probe.
func (h *Health) AddCheck(kind Kind, name string, opts CheckOptions, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[kind] = append(h.checks[kind], newCheck(name, opts, fn))
}

// AddLivenessCheck registers a required liveness check with default
// thresholds.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.AddCheck(Liveness, name, CheckOptions{Timeout: timeout}, fn)
}

// AddReadinessCheck registers a required readiness check with default
// thresholds.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.AddCheck(Readiness, name, CheckOptions{Timeout: timeout}, fn)
}

func (h *Health) snapshot(kind Kind) []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.checks[kind])
}

// Start runs every registered check immediately and then once per interval
// until ctx is done or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	all := slices.Concat(h.checks[Liveness], h.checks[Readiness])
	h.mu.Unlock()

	for _, c := range all {
		go loop(ctx, c, interval)
	}
}

func loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels the check goroutines. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness switch. The server sets it after
// startup and clears it when draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the server is marked ready and every required
// readiness check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	r := evaluate(h.snapshot(Readiness))
	return !r.failed
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	evaluate(h.snapshot(Liveness)).write(w)
}

// ReadyEndpoint serves /readyz. It fails while the readiness switch is off.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	r := evaluate(h.snapshot(Readiness))
	if !h.ready.Load() {
		r.add("_readiness", "service is not ready", false)
	}
	r.write(w)
}

type failure struct {
	name, msg string
}

type report struct {
	failures []failure
	failed   bool
	degraded bool
}

func (r *report) add(name, msg string, optional bool) {
	r.failures = append(r.failures, failure{name: name, msg: msg})
	if optional {
		r.degraded = true
	} else {
		r.failed = true
	}
}

// evaluate uses the last stored results and never runs a check itself.
func evaluate(checks []*check) report {
	var r report
	for _, c := range checks {
		if c.isHealthy() {
			continue
		}
		msg := "check is unhealthy"
		if err := c.getLastError(); err != nil {
			msg = err.Error()
		}
		r.add(c.name, msg, c.opts.Optional)
	}
	slices.SortFunc(r.failures, func(a, b failure) int {
		return strings.Compare(a.name, b.name)
	})
	return r
}

func (r report) status() (string, int) {
	switch {
	case r.failed:
		return "unhealthy", http.StatusServiceUnavailable
	case r.degraded:
		return "degraded", http.StatusOK
	default:
		return "ok", http.StatusOK
	}
}

// write encodes {"status": ..., "checks": {name: error}}; checks is omitted
// when everything passes.
func (r report) write(w http.ResponseWriter) {
	status, code := r.status()

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("status")
	e.Str(status)
	if len(r.failures) > 0 {
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range r.failures {
			e.FieldStart(f.name)
			e.Str(f.msg)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// The status line is already out; a failed write means the client left.
	_, _ = w.Write(e.Bytes())
}
