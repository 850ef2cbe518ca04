// Package reconciler converges one domain's per-line CNAME records on the
// targets published for each line.
//
// A pass resolves the zone once, then walks the configured lines in order. For
// every line it resolves the desired target, inspects the records currently
// attributed to the line, decides on a plan and applies it. Failures are
// contained to the line they occur on.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gitlab.bluewillows.net/root/linesync/internal/metrics"
	"gitlab.bluewillows.net/root/linesync/internal/target"
	"gitlab.bluewillows.net/root/linesync/pkg/dnsname"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// Defaults applied by DefaultConfig.
const (
	DefaultTTL       = 60
	DefaultLineDelay = 2 * time.Second
)

// ErrNoLines is returned when a pass is requested without any line.
var ErrNoLines = errors.New("no lines configured")

// Config holds reconciler configuration options.
type Config struct {
	// DryRun computes and logs decisions without making mutating calls.
	DryRun bool

	// Strategy selects replace (delete then create) or update-in-place.
	Strategy Strategy

	// InspectMode selects line-scoped or domain-wide record listing.
	InspectMode InspectMode

	// TTL is applied to created and updated records.
	TTL int

	// LineDelay is the pause between consecutive lines. Zero disables it.
	LineDelay time.Duration
}

// DefaultConfig returns a Config with the standard defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:    StrategyReplace,
		InspectMode: InspectLine,
		TTL:         DefaultTTL,
		LineDelay:   DefaultLineDelay,
	}
}

// Line is one ISP line and the source its target is published at.
type Line struct {
	// ID is the provider line identifier (e.g. "dianxin").
	ID string

	// Name is an optional display name used in logs.
	Name string

	// Source is the URL of the target document.
	Source string
}

// Label returns the display name, falling back to the id.
func (l Line) Label() string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID
}

// TargetResolver resolves the desired target for a line.
type TargetResolver interface {
	Resolve(ctx context.Context, line, source string) target.Resolution
}

// Reconciler runs reconciliation passes against a single provider.
type Reconciler struct {
	provider provider.Provider
	resolver TargetResolver
	config   Config
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	mu   sync.RWMutex
	last *Result
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConfig sets the reconciler configuration.
func WithConfig(cfg Config) Option {
	return func(r *Reconciler) {
		r.config = cfg
	}
}

// New creates a Reconciler for p, resolving targets with resolver.
func New(p provider.Provider, resolver TargetResolver, opts ...Option) *Reconciler {
	r := &Reconciler{
		provider: p,
		resolver: resolver,
		config:   DefaultConfig(),
		logger:   slog.Default(),
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.config.Strategy == "" {
		r.config.Strategy = StrategyReplace
	}
	if r.config.InspectMode == "" {
		r.config.InspectMode = InspectLine
	}
	if r.config.TTL <= 0 {
		r.config.TTL = DefaultTTL
	}

	return r
}

// Config returns the effective configuration.
func (r *Reconciler) Config() Config {
	return r.config
}

// LastResult returns the result of the most recent completed pass, or nil.
func (r *Reconciler) LastResult() *Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Reconcile runs one pass for domain in zoneName over lines, in order.
//
// The only error returned is a failure to resolve the zone, which is fatal to
// the pass. Per-line failures are recorded on the Result.
func (r *Reconciler) Reconcile(ctx context.Context, zoneName, domain string, lines []Line) (*Result, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	result := NewResult(r.config.DryRun)
	result.Domain = dnsname.Normalize(domain)
	result.Strategy = r.config.Strategy

	r.logger.Info("starting reconciliation",
		slog.String("zone", zoneName),
		slog.String("domain", result.Domain),
		slog.Int("lines", len(lines)),
		slog.String("strategy", string(r.config.Strategy)),
		slog.String("inspect", string(r.config.InspectMode)),
		slog.Bool("dry_run", r.config.DryRun),
	)

	zone, err := LocateZone(ctx, r.provider, zoneName, r.logger)
	if err != nil {
		result.Zone = dnsname.Normalize(zoneName)
		result.Error = err.Error()
		result.Complete()
		r.record(result)
		r.logger.Error("zone resolution failed",
			slog.String("zone", result.Zone),
			slog.String("error", err.Error()),
		)
		return result, err
	}
	result.Zone = zone.Name
	result.ZoneID = zone.ID

	session := &Session{
		Provider: r.provider,
		Zone:     zone,
		Domain:   result.Domain,
	}
	inspector := NewInspector(r.config.InspectMode, r.logger)
	mutator := NewMutator(session, r.config.TTL, r.config.DryRun, r.logger)

	for i, line := range lines {
		if i > 0 && r.config.LineDelay > 0 {
			if err := r.sleep(ctx, r.config.LineDelay); err != nil {
				r.logger.Warn("pass interrupted between lines",
					slog.String("next_line", line.ID),
					slog.String("error", err.Error()),
				)
				break
			}
		}

		lr := r.reconcileLine(ctx, session, inspector, mutator, line)
		metrics.LineOutcomesTotal.WithLabelValues(line.ID, string(lr.Outcome)).Inc()
		result.AddLine(lr)
	}

	result.Complete()
	r.record(result)

	r.logger.Info("reconciliation complete",
		slog.String("domain", result.Domain),
		slog.String("status", result.Status()),
		slog.Int("succeeded", result.SucceededCount()),
		slog.Int("failed", result.FailedCount()),
		slog.Duration("duration", result.Duration()),
	)

	return result, nil
}

func (r *Reconciler) reconcileLine(ctx context.Context, s *Session, inspector *Inspector, mutator *Mutator, line Line) LineResult {
	start := time.Now()
	lr := LineResult{Line: line.ID}

	logger := r.logger.With(slog.String("line", line.ID), slog.String("line_name", line.Label()))

	res := r.resolver.Resolve(ctx, line.ID, line.Source)
	if !res.Found() {
		metrics.TargetFetchesTotal.WithLabelValues(line.ID, "missing").Inc()
		lr.Outcome = OutcomeSkipped
		lr.Reason = "no target"
		if res.Reason != nil {
			lr.Reason = res.Reason.Error()
		}
		logger.Warn("skipping line without target", slog.String("reason", lr.Reason))
		return finishLine(lr, start)
	}
	metrics.TargetFetchesTotal.WithLabelValues(line.ID, "found").Inc()
	lr.Target = res.Target

	existing, inspectErr := inspector.Inspect(ctx, s, line.ID)
	if inspectErr != nil {
		// Listing failures degrade to an empty view; the create that follows
		// will surface a conflict if records are in fact present.
		logger.Warn("inspection failed, treating line as empty",
			slog.String("inspect", string(inspector.Mode())),
			slog.String("error", inspectErr.Error()),
		)
	}
	lr.Existing = len(existing)

	plan := Decide(res.Target, existing, r.config.Strategy)
	logger.Debug("planned line",
		slog.String("plan", string(plan.Kind)),
		slog.String("target", res.Target),
		slog.Int("existing", len(existing)),
		slog.Int("mutations", plan.Mutations()),
	)

	switch plan.Kind {
	case PlanNoop:
		lr.Outcome = OutcomeUnchanged
		logger.Info("line already up to date", slog.String("target", res.Target))
		return finishLine(lr, start)
	case PlanSkip:
		lr.Outcome = OutcomeSkipped
		return finishLine(lr, start)
	}

	for _, rs := range plan.Deletes {
		action := mutator.Delete(ctx, line.ID, rs)
		lr.Actions = append(lr.Actions, action)
		if action.Status == StatusFailed {
			lr.Outcome = OutcomeFailed
			lr.Reason = fmt.Sprintf("delete %s: %s", rs.ID, action.Error)
			return finishLine(lr, start)
		}
	}

	if plan.Update != nil {
		action := mutator.Update(ctx, line.ID, *plan.Update, res.Target)
		lr.Actions = append(lr.Actions, action)
		if action.Status == StatusFailed {
			lr.Outcome = OutcomeFailed
			lr.Reason = "update: " + action.Error
			return finishLine(lr, start)
		}
		lr.Outcome = OutcomeUpdated
	}

	if plan.Create {
		action := mutator.Create(ctx, line.ID, res.Target)
		lr.Actions = append(lr.Actions, action)
		if action.Status == StatusFailed {
			lr.Outcome = OutcomeFailed
			lr.Reason = "create: " + action.Error
			if inspectErr != nil && provider.IsConflict(action.Err()) {
				lr.Reason = "create: line has records the failed listing did not return: " + action.Error
			}
			return finishLine(lr, start)
		}
		if plan.Kind == PlanReplace {
			lr.Outcome = OutcomeReplaced
		} else {
			lr.Outcome = OutcomeCreated
		}
	}

	return finishLine(lr, start)
}

func finishLine(lr LineResult, start time.Time) LineResult {
	lr.Duration = time.Since(start)
	return lr
}

// record stores the result and updates pass-level metrics.
func (r *Reconciler) record(result *Result) {
	metrics.RunsTotal.WithLabelValues(result.Status()).Inc()
	metrics.RunDuration.Observe(result.Duration().Seconds())
	metrics.LastRunTimestamp.Set(float64(result.EndTime.Unix()))

	r.mu.Lock()
	r.last = result
	r.mu.Unlock()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
