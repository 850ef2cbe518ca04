package reconciler

import (
	"testing"

	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyReplace, false},
		{"replace", StrategyReplace, false},
		{" UPDATE ", StrategyUpdate, false},
		{"bulk", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecide(t *testing.T) {
	const desired = "cdn2.example.net."

	aRecord := provider.RecordSet{
		ID:      "a1",
		Type:    provider.RecordTypeA,
		Line:    provider.LinePtr("dianxin"),
		Records: []string{"10.0.0.1"},
	}
	multi := cname("m1", "dianxin", desired)
	multi.Records = []string{desired, "cdn3.example.net."}

	tests := []struct {
		name        string
		desired     string
		existing    []provider.RecordSet
		strategy    Strategy
		wantKind    PlanKind
		wantDeletes []string
		wantUpdate  string
		wantCreate  bool
	}{
		{
			name:     "no target skips even with records",
			desired:  "",
			existing: []provider.RecordSet{cname("c1", "dianxin", "old.example.net.")},
			strategy: StrategyReplace,
			wantKind: PlanSkip,
		},
		{
			name:       "empty line creates",
			desired:    desired,
			strategy:   StrategyReplace,
			wantKind:   PlanCreate,
			wantCreate: true,
		},
		{
			name:     "converged is noop",
			desired:  desired,
			existing: []provider.RecordSet{cname("c1", "dianxin", desired)},
			strategy: StrategyReplace,
			wantKind: PlanNoop,
		},
		{
			name:     "converged without trailing dot is noop",
			desired:  desired,
			existing: []provider.RecordSet{cname("c1", "dianxin", "cdn2.example.net")},
			strategy: StrategyUpdate,
			wantKind: PlanNoop,
		},
		{
			name:        "case difference is drift",
			desired:     desired,
			existing:    []provider.RecordSet{cname("c1", "dianxin", "CDN2.example.net.")},
			strategy:    StrategyReplace,
			wantKind:    PlanReplace,
			wantDeletes: []string{"c1"},
			wantCreate:  true,
		},
		{
			name:        "wrong value replaces",
			desired:     desired,
			existing:    []provider.RecordSet{cname("c1", "dianxin", "cdn1.example.net.")},
			strategy:    StrategyReplace,
			wantKind:    PlanReplace,
			wantDeletes: []string{"c1"},
			wantCreate:  true,
		},
		{
			name:       "wrong value updates in place",
			desired:    desired,
			existing:   []provider.RecordSet{cname("c1", "dianxin", "cdn1.example.net.")},
			strategy:   StrategyUpdate,
			wantKind:   PlanUpdate,
			wantUpdate: "c1",
		},
		{
			name:        "stray A and wrong CNAME replace",
			desired:     desired,
			existing:    []provider.RecordSet{aRecord, cname("c1", "dianxin", "cdn1.example.net.")},
			strategy:    StrategyReplace,
			wantKind:    PlanReplace,
			wantDeletes: []string{"a1", "c1"},
			wantCreate:  true,
		},
		{
			name:        "update strategy falls back to replace for multiple records",
			desired:     desired,
			existing:    []provider.RecordSet{aRecord, cname("c1", "dianxin", desired)},
			strategy:    StrategyUpdate,
			wantKind:    PlanReplace,
			wantDeletes: []string{"a1", "c1"},
			wantCreate:  true,
		},
		{
			name:        "lone A record is replaced under update strategy",
			desired:     desired,
			existing:    []provider.RecordSet{aRecord},
			strategy:    StrategyUpdate,
			wantKind:    PlanReplace,
			wantDeletes: []string{"a1"},
			wantCreate:  true,
		},
		{
			name:        "multi-valued CNAME is replaced",
			desired:     desired,
			existing:    []provider.RecordSet{multi},
			strategy:    StrategyUpdate,
			wantKind:    PlanReplace,
			wantDeletes: []string{"m1"},
			wantCreate:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Decide(tt.desired, tt.existing, tt.strategy)

			if plan.Kind != tt.wantKind {
				t.Fatalf("Kind = %q, want %q", plan.Kind, tt.wantKind)
			}
			if plan.Create != tt.wantCreate {
				t.Errorf("Create = %v, want %v", plan.Create, tt.wantCreate)
			}

			var deletes []string
			for _, rs := range plan.Deletes {
				deletes = append(deletes, rs.ID)
			}
			if len(deletes) != len(tt.wantDeletes) {
				t.Fatalf("Deletes = %v, want %v", deletes, tt.wantDeletes)
			}
			for i := range deletes {
				if deletes[i] != tt.wantDeletes[i] {
					t.Errorf("Deletes[%d] = %q, want %q", i, deletes[i], tt.wantDeletes[i])
				}
			}

			switch {
			case tt.wantUpdate == "" && plan.Update != nil:
				t.Errorf("unexpected update of %q", plan.Update.ID)
			case tt.wantUpdate != "" && (plan.Update == nil || plan.Update.ID != tt.wantUpdate):
				t.Errorf("Update = %v, want id %q", plan.Update, tt.wantUpdate)
			}
		})
	}
}

func TestPlan_Mutations(t *testing.T) {
	rs := cname("c1", "dianxin", "x.example.net.")
	tests := []struct {
		plan Plan
		want int
	}{
		{Plan{Kind: PlanNoop}, 0},
		{Plan{Kind: PlanCreate, Create: true}, 1},
		{Plan{Kind: PlanUpdate, Update: &rs}, 1},
		{Plan{Kind: PlanReplace, Deletes: []provider.RecordSet{rs, rs}, Create: true}, 3},
	}

	for _, tt := range tests {
		if got := tt.plan.Mutations(); got != tt.want {
			t.Errorf("%s: Mutations() = %d, want %d", tt.plan.Kind, got, tt.want)
		}
	}
}

func TestConverged(t *testing.T) {
	if !Converged(cname("c1", "", "a.example.net"), "a.example.net.") {
		t.Error("expected trailing-dot difference to converge")
	}
	a := provider.RecordSet{Type: provider.RecordTypeA, Records: []string{"a.example.net."}}
	if Converged(a, "a.example.net.") {
		t.Error("A record must never be converged")
	}
	lower := cname("c1", "", "a.example.net.")
	lower.Type = "cname"
	if !Converged(lower, "a.example.net.") {
		t.Error("record type comparison should ignore case")
	}
}
