package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
)

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresSink stores packages in the scenario_packages table.
type PostgresSink struct {
	db execer
}

var _ narrative.PackageSink = (*PostgresSink)(nil)

func NewPostgresSink(db execer) *PostgresSink {
	if db == nil {
		panic("archive: pgx pool cannot be nil")
	}
	return &PostgresSink{db: db}
}

// Persist inserts the package. A row for the session that already exists is left as is.
func (s *PostgresSink) Persist(ctx context.Context, record narrative.PackageRecord) error {
	if record.SessionID == "" {
		return narrative.ErrMissingSessionIdentity
	}
	answers, err := marshalJSON(record.Answers)
	if err != nil {
		return err
	}
	scenarios, err := marshalJSON(record.Scenarios)
	if err != nil {
		return err
	}
	transcript, err := marshalJSON(record.Transcript)
	if err != nil {
		return err
	}
	adaptations, err := marshalJSON(record.Adaptations)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO scenario_packages (
			session_id, created_at, finalized_at, scenario, judgment, selected_slot,
			persona_assignment, answer_set, scenarios_all, chat_history, adaptation_list
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (session_id) DO NOTHING
	`, record.SessionID, record.CreatedAt, record.FinalizedAt, record.Scenario, record.Judgment, record.SelectedSlot,
		record.PersonaAssignment, answers, scenarios, transcript, adaptations); err != nil {
		return fmt.Errorf("archive: failed to insert package: %w", err)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("archive: failed to marshal column: %w", err)
	}
	return data, nil
}
