package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresSinkInsertsPackage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	record := sampleRecord("p-1")
	mock.ExpectExec("INSERT INTO scenario_packages").
		WithArgs("p-1", record.CreatedAt, record.FinalizedAt, record.Scenario, "Ready as is!", 2,
			record.PersonaAssignment, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := NewPostgresSink(mock).Persist(context.Background(), record); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSinkConflictIsNotAnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("ON CONFLICT \\(session_id\\) DO NOTHING").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	if err := NewPostgresSink(mock).Persist(context.Background(), sampleRecord("p-1")); err != nil {
		t.Fatalf("expected duplicate insert to succeed, got %v", err)
	}
}

func TestPostgresSinkPropagatesErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO scenario_packages").WillReturnError(errors.New("connection reset"))

	sink := NewPostgresSink(mock)
	if err := sink.Persist(context.Background(), sampleRecord("p-1")); err == nil {
		t.Fatal("expected error")
	}
	if err := sink.Persist(context.Background(), narrative.PackageRecord{}); !errors.Is(err, narrative.ErrMissingSessionIdentity) {
		t.Fatalf("expected missing identity, got %v", err)
	}
}
