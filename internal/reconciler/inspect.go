package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.bluewillows.net/root/linesync/pkg/dnsname"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// InspectMode selects how existing records for a line are listed.
type InspectMode string

const (
	// InspectLine lists with a line filter and keeps CNAME and A records
	// whose line attribute equals the requested line.
	InspectLine InspectMode = "line"

	// InspectDomain lists every CNAME for the domain without a line filter
	// and groups by line attribute client-side.
	InspectDomain InspectMode = "domain"
)

// ParseInspectMode validates a mode name. Empty selects InspectLine.
func ParseInspectMode(s string) (InspectMode, error) {
	switch InspectMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", InspectLine:
		return InspectLine, nil
	case InspectDomain:
		return InspectDomain, nil
	default:
		return "", fmt.Errorf("unknown inspect mode %q (expected %s or %s)", s, InspectLine, InspectDomain)
	}
}

// Inspector lists the record sets currently attributed to a line.
type Inspector struct {
	mode   InspectMode
	logger *slog.Logger
}

// NewInspector creates an Inspector for mode.
func NewInspector(mode InspectMode, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = InspectLine
	}
	return &Inspector{mode: mode, logger: logger}
}

// Mode returns the inspection mode.
func (i *Inspector) Mode() InspectMode {
	return i.mode
}

// Inspect returns the record sets for line. On a listing failure it returns
// an empty slice together with the error; callers log it and continue.
//
// Provider filters are treated as hints: every returned record is checked
// again for name, type and line before it is kept.
func (i *Inspector) Inspect(ctx context.Context, s *Session, line string) ([]provider.RecordSet, error) {
	domain := dnsname.Normalize(s.Domain)

	filter := provider.ListFilter{Name: domain}
	switch i.mode {
	case InspectDomain:
		filter.Type = provider.RecordTypeCNAME
	default:
		filter.Line = line
	}

	sets, err := s.Provider.ListRecordSets(ctx, s.Zone.ID, filter)
	if err != nil {
		i.logger.Error("listing record sets failed",
			slog.String("line", line),
			slog.String("domain", domain),
			slog.String("mode", string(i.mode)),
			slog.String("error", err.Error()),
		)
		return []provider.RecordSet{}, err
	}

	kept := make([]provider.RecordSet, 0, len(sets))
	for _, rs := range sets {
		if !i.keep(rs, domain, line) {
			continue
		}
		kept = append(kept, rs)
	}

	if dropped := len(sets) - len(kept); dropped > 0 {
		i.logger.Debug("discarded records outside the line",
			slog.String("line", line),
			slog.Int("listed", len(sets)),
			slog.Int("dropped", dropped),
		)
	}
	return kept, nil
}

func (i *Inspector) keep(rs provider.RecordSet, domain, line string) bool {
	if !strings.EqualFold(dnsname.Normalize(rs.Name), domain) {
		return false
	}
	if !rs.OnLine(line) {
		return false
	}

	switch provider.RecordType(strings.ToUpper(string(rs.Type))) {
	case provider.RecordTypeCNAME:
		return true
	case provider.RecordTypeA:
		// Legacy A records on the line are cleaned up by the line-scoped pass.
		return i.mode == InspectLine
	default:
		return false
	}
}
