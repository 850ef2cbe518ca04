package reconciler

import (
	"context"
	"log/slog"

	"gitlab.bluewillows.net/root/linesync/internal/metrics"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// Mutator issues create, update and delete calls for one session. Every call
// is independent and is never retried within a pass.
type Mutator struct {
	session *Session
	ttl     int
	dryRun  bool
	logger  *slog.Logger
}

// NewMutator creates a Mutator. In dry-run mode no provider call is made and
// every action is reported as skipped.
func NewMutator(s *Session, ttl int, dryRun bool, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Mutator{session: s, ttl: ttl, dryRun: dryRun, logger: logger}
}

// Create adds a line-scoped CNAME pointing at target.
func (m *Mutator) Create(ctx context.Context, line, target string) Action {
	action := Action{
		Type:       ActionCreate,
		Line:       line,
		Name:       m.session.Domain,
		RecordType: string(provider.RecordTypeCNAME),
		Target:     target,
	}

	if m.dryRun {
		return m.skip(action)
	}

	rs, err := m.session.Provider.CreateRecordSet(ctx, m.session.Zone.ID, provider.CreateRequest{
		Name:    m.session.Domain,
		Type:    provider.RecordTypeCNAME,
		Records: []string{target},
		TTL:     m.ttl,
		Line:    line,
	})
	action.RecordID = rs.ID
	return m.finish(action, err)
}

// Update replaces the value of an existing record set in place.
func (m *Mutator) Update(ctx context.Context, line string, rs provider.RecordSet, target string) Action {
	action := Action{
		Type:       ActionUpdate,
		Line:       line,
		Name:       m.session.Domain,
		RecordType: string(rs.Type),
		RecordID:   rs.ID,
		Target:     target,
	}

	if m.dryRun {
		return m.skip(action)
	}

	err := m.session.Provider.UpdateRecordSet(ctx, m.session.Zone.ID, rs.ID, provider.UpdateRequest{
		Name:    m.session.Domain,
		Type:    rs.Type,
		Records: []string{target},
		TTL:     m.ttl,
	})
	return m.finish(action, err)
}

// Delete removes an existing record set by id. A record that is already
// gone counts as deleted.
func (m *Mutator) Delete(ctx context.Context, line string, rs provider.RecordSet) Action {
	action := Action{
		Type:       ActionDelete,
		Line:       line,
		Name:       m.session.Domain,
		RecordType: string(rs.Type),
		RecordID:   rs.ID,
		Target:     rs.Value(),
	}

	if m.dryRun {
		return m.skip(action)
	}

	err := m.session.Provider.DeleteRecordSet(ctx, m.session.Zone.ID, rs.ID)
	if provider.IsNotFound(err) {
		m.logger.Debug("record already gone",
			slog.String("line", line),
			slog.String("record_id", rs.ID),
		)
		err = nil
	}
	return m.finish(action, err)
}

func (m *Mutator) skip(action Action) Action {
	action.Status = StatusSkipped
	m.logger.Info("dry run: would "+string(action.Type)+" record",
		slog.String("line", action.Line),
		slog.String("name", action.Name),
		slog.String("type", action.RecordType),
		slog.String("record_id", action.RecordID),
		slog.String("target", action.Target),
	)
	return action
}

func (m *Mutator) finish(action Action, err error) Action {
	metrics.RecordOperationsTotal.WithLabelValues(string(action.Type), metrics.StatusLabel(err)).Inc()

	if err != nil {
		action.Status = StatusFailed
		action.Error = err.Error()
		action.err = err
		m.logger.Error("record "+string(action.Type)+" failed",
			slog.String("line", action.Line),
			slog.String("name", action.Name),
			slog.String("type", action.RecordType),
			slog.String("record_id", action.RecordID),
			slog.String("error", err.Error()),
		)
		return action
	}

	action.Status = StatusSuccess
	m.logger.Info("record "+string(action.Type)+"d",
		slog.String("line", action.Line),
		slog.String("name", action.Name),
		slog.String("type", action.RecordType),
		slog.String("record_id", action.RecordID),
		slog.String("target", action.Target),
	)
	return action
}
