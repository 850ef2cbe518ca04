package reconciler

import (
	"fmt"
	"strings"
	"time"
)

// ActionType represents the type of mutating call.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// ActionStatus represents the outcome of an action.
type ActionStatus string

const (
	StatusSuccess ActionStatus = "success"
	StatusFailed  ActionStatus = "failed"
	// StatusSkipped marks actions planned but not executed (dry run).
	StatusSkipped ActionStatus = "skipped"
)

// Action is a single create, update or delete against the provider.
type Action struct {
	Type       ActionType   `json:"type"`
	Status     ActionStatus `json:"status"`
	Line       string       `json:"line"`
	Name       string       `json:"name"`
	RecordType string       `json:"record_type"`
	RecordID   string       `json:"record_id,omitempty"`
	Target     string       `json:"target,omitempty"`
	Error      string       `json:"error,omitempty"`

	err error
}

// Err returns the provider error behind a failed action.
func (a Action) Err() error {
	return a.err
}

// String returns a human-readable representation of the action.
func (a Action) String() string {
	s := fmt.Sprintf("[%s] %s %s %s", a.Status, a.Type, a.RecordType, a.Name)
	if a.RecordID != "" {
		s += " id=" + a.RecordID
	}
	if a.Target != "" {
		s += " -> " + a.Target
	}
	if a.Error != "" {
		s += ": " + a.Error
	}
	return s
}

// Outcome summarizes what happened to one line.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeReplaced  Outcome = "replaced"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// LineResult is the result of reconciling one line.
type LineResult struct {
	Line     string        `json:"line"`
	Target   string        `json:"target,omitempty"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Existing int           `json:"existing"`
	Actions  []Action      `json:"actions,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the line ended in a non-failed state.
func (l LineResult) Succeeded() bool {
	return l.Outcome != OutcomeFailed
}

// Result holds the complete result of a reconciliation pass.
type Result struct {
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Zone      string       `json:"zone"`
	ZoneID    string       `json:"zone_id"`
	Domain    string       `json:"domain"`
	Strategy  Strategy     `json:"strategy"`
	DryRun    bool         `json:"dry_run"`
	Lines     []LineResult `json:"lines"`

	// Error is set when the pass aborted before processing any line.
	Error string `json:"error,omitempty"`
}

// NewResult creates a new Result with the start time set to now.
func NewResult(dryRun bool) *Result {
	return &Result{
		StartTime: time.Now(),
		Lines:     make([]LineResult, 0),
		DryRun:    dryRun,
	}
}

// Complete marks the result as complete with the end time set to now.
func (r *Result) Complete() {
	r.EndTime = time.Now()
}

// Duration returns the total pass duration.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// AddLine appends a line result.
func (r *Result) AddLine(l LineResult) {
	r.Lines = append(r.Lines, l)
}

// Actions returns every action across all lines in execution order.
func (r *Result) Actions() []Action {
	var all []Action
	for _, l := range r.Lines {
		all = append(all, l.Actions...)
	}
	return all
}

// CountActions returns the number of actions with the given type and status.
func (r *Result) CountActions(t ActionType, s ActionStatus) int {
	n := 0
	for _, a := range r.Actions() {
		if a.Type == t && a.Status == s {
			n++
		}
	}
	return n
}

// CountOutcome returns the number of lines with the given outcome.
func (r *Result) CountOutcome(o Outcome) int {
	n := 0
	for _, l := range r.Lines {
		if l.Outcome == o {
			n++
		}
	}
	return n
}

// SucceededCount returns the number of lines that did not fail.
func (r *Result) SucceededCount() int {
	return len(r.Lines) - r.FailedCount()
}

// FailedCount returns the number of failed lines.
func (r *Result) FailedCount() int {
	return r.CountOutcome(OutcomeFailed)
}

// HasErrors returns true if the pass aborted or any line failed.
func (r *Result) HasErrors() bool {
	return r.Error != "" || r.FailedCount() > 0
}

// Status returns the run status label: success, partial or error.
func (r *Result) Status() string {
	if r.Error != "" {
		return "error"
	}
	switch failed := r.FailedCount(); {
	case failed == 0:
		return "success"
	case failed < len(r.Lines):
		return "partial"
	default:
		return "error"
	}
}

// Summary returns a human-readable summary of the pass.
func (r *Result) Summary() string {
	var sb strings.Builder

	mode := "applied"
	if r.DryRun {
		mode = "dry-run"
	}

	fmt.Fprintf(&sb, "Reconciliation complete (%s, %s) for %s in %s\n",
		mode, r.Strategy, r.Domain, r.Duration().Round(time.Millisecond))
	if r.Error != "" {
		fmt.Fprintf(&sb, "  Aborted: %s\n", r.Error)
	}
	for _, l := range r.Lines {
		fmt.Fprintf(&sb, "  %-10s %-9s", l.Line, l.Outcome)
		if l.Target != "" {
			fmt.Fprintf(&sb, " %s", l.Target)
		}
		if l.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", l.Reason)
		}
		sb.WriteString("\n")
		for _, a := range l.Actions {
			fmt.Fprintf(&sb, "    - %s\n", a.String())
		}
	}
	fmt.Fprintf(&sb, "  Succeeded: %d, Failed: %d\n", r.SucceededCount(), r.FailedCount())

	return sb.String()
}
