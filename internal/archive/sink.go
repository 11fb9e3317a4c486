// Package archive stores finished scenario packages: the durable write-once
// record plus optional copies and notices.
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// MultiSink fans a package out to several sinks. Required sinks must all
// succeed for the package to count as persisted; best-effort sinks only log.
type MultiSink struct {
	required   []narrative.PackageSink
	bestEffort []narrative.PackageSink
	logger     *logging.Logger
}

var _ narrative.PackageSink = (*MultiSink)(nil)

func NewMultiSink(logger *logging.Logger, required ...narrative.PackageSink) *MultiSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &MultiSink{required: required, logger: logger}
}

// WithBestEffort adds sinks whose failures do not fail the write.
func (m *MultiSink) WithBestEffort(sinks ...narrative.PackageSink) *MultiSink {
	for _, s := range sinks {
		if s != nil {
			m.bestEffort = append(m.bestEffort, s)
		}
	}
	return m
}

// Persist writes to required sinks first and stops there on failure, so
// notices never announce a package that was not stored.
func (m *MultiSink) Persist(ctx context.Context, record narrative.PackageRecord) error {
	if len(m.required) == 0 {
		return errors.New("archive: no durable package sink configured")
	}
	var errs []error
	for _, sink := range m.required {
		if err := sink.Persist(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("archive: durable write failed: %w", errors.Join(errs...))
	}

	for _, sink := range m.bestEffort {
		if err := sink.Persist(ctx, record); err != nil {
			m.logger.ForSession(record.SessionID).Warn("best-effort package sink failed", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
	return nil
}

// LogSink records packages in the log only. It backs local runs without storage.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Persist(_ context.Context, record narrative.PackageRecord) error {
	s.logger.ForSession(record.SessionID).Info("scenario package",
		"scenario", record.Scenario,
		"judgment", record.Judgment,
		"selected_slot", record.SelectedSlot,
		"adaptations", len(record.Adaptations),
	)
	return nil
}
