package reconciler

import (
	"fmt"
	"strings"

	"gitlab.bluewillows.net/root/linesync/pkg/dnsname"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// Strategy selects how a drifted line is converged.
type Strategy string

const (
	// StrategyReplace deletes every existing record on the line, then
	// creates one fresh CNAME.
	StrategyReplace Strategy = "replace"

	// StrategyUpdate updates a single drifted CNAME in place by id and
	// falls back to replace for any other shape.
	StrategyUpdate Strategy = "update"
)

// ParseStrategy validates a strategy name. Empty selects StrategyReplace.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyReplace:
		return StrategyReplace, nil
	case StrategyUpdate:
		return StrategyUpdate, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (expected %s or %s)", s, StrategyReplace, StrategyUpdate)
	}
}

// PlanKind is the decision taken for a line.
type PlanKind string

const (
	PlanSkip    PlanKind = "skip"
	PlanNoop    PlanKind = "noop"
	PlanCreate  PlanKind = "create"
	PlanUpdate  PlanKind = "update"
	PlanReplace PlanKind = "replace"
)

// Plan lists the mutations for one line. Deletes run before Create.
type Plan struct {
	Kind    PlanKind
	Deletes []provider.RecordSet
	Update  *provider.RecordSet
	Create  bool
}

// Mutations returns the number of mutating calls the plan makes.
func (p Plan) Mutations() int {
	n := len(p.Deletes)
	if p.Update != nil {
		n++
	}
	if p.Create {
		n++
	}
	return n
}

// Decide computes the plan for one line. desired is a normalized target or
// "" when the line has no target; existing is already scoped to the line.
func Decide(desired string, existing []provider.RecordSet, strategy Strategy) Plan {
	if desired == "" {
		return Plan{Kind: PlanSkip}
	}

	if len(existing) == 0 {
		return Plan{Kind: PlanCreate, Create: true}
	}

	if len(existing) == 1 && isCNAME(existing[0]) && len(existing[0].Records) == 1 {
		if Converged(existing[0], desired) {
			return Plan{Kind: PlanNoop}
		}
		if strategy == StrategyUpdate {
			rs := existing[0]
			return Plan{Kind: PlanUpdate, Update: &rs}
		}
	}

	deletes := make([]provider.RecordSet, len(existing))
	copy(deletes, existing)
	return Plan{Kind: PlanReplace, Deletes: deletes, Create: true}
}

// Converged reports whether rs is a single-valued CNAME pointing at desired.
// Values are compared exactly after trailing-dot normalization.
func Converged(rs provider.RecordSet, desired string) bool {
	return isCNAME(rs) && len(rs.Records) == 1 && dnsname.Equal(rs.Records[0], desired)
}

func isCNAME(rs provider.RecordSet) bool {
	return strings.EqualFold(string(rs.Type), string(provider.RecordTypeCNAME))
}
