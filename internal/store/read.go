package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazardlab/sesgen/internal/catalog"
)

// ErrRunNotFound is returned when the requested run is not in the store.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one row of the run catalog.
type RunSummary struct {
	RunID       string
	Scenario    string
	Seed        int64
	SESPerPath  int
	Samples     int
	NumRuptures int
	NumEvents   int
	CreatedAt   string
}

// RuptureRecord is one stored rupture with its events.
type RuptureRecord struct {
	Serial   int64
	SourceID string
	GrpID    uint16
	SIDs     []uint32
	Events   []catalog.Event
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, scenario, seed, ses_per_path, samples, num_ruptures, num_events, created_at
		FROM runs
		ORDER BY created_at DESC, run_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Scenario, &r.Seed, &r.SESPerPath,
			&r.Samples, &r.NumRuptures, &r.NumEvents, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if runs == nil {
		runs = []RunSummary{}
	}
	return runs, nil
}

// ReadRun returns the summary of one run.
func (s *Store) ReadRun(ctx context.Context, runID string) (*RunSummary, error) {
	var r RunSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, scenario, seed, ses_per_path, samples, num_ruptures, num_events, created_at
		FROM runs WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.Scenario, &r.Seed, &r.SESPerPath,
		&r.Samples, &r.NumRuptures, &r.NumEvents, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return &r, nil
}

// ReadRuptures returns the stored ruptures of a run with their events, in
// ascending serial order; events within a rupture come back in ascending
// event-ID order. The ordering matches what the sampler produced, so a
// round-tripped batch compares equal.
func (s *Store) ReadRuptures(ctx context.Context, runID string) ([]RuptureRecord, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT serial, source_id, grp_id, sids
		FROM eb_ruptures
		WHERE run_id = ?
		ORDER BY serial ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ruptures: %w", err)
	}
	defer rows.Close()

	var records []RuptureRecord
	for rows.Next() {
		var rec RuptureRecord
		var sidsJSON string
		if err := rows.Scan(&rec.Serial, &rec.SourceID, &rec.GrpID, &sidsJSON); err != nil {
			return nil, fmt.Errorf("scan rupture: %w", err)
		}
		sids, err := unmarshalSIDs(sidsJSON)
		if err != nil {
			return nil, fmt.Errorf("rupture %d: %w", rec.Serial, err)
		}
		rec.SIDs = sids
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ruptures: %w", err)
	}

	for i := range records {
		events, err := s.readEvents(ctx, runID, records[i].Serial, records[i].GrpID)
		if err != nil {
			return nil, err
		}
		records[i].Events = events
	}
	if records == nil {
		records = []RuptureRecord{}
	}
	return records, nil
}

func (s *Store) readEvents(ctx context.Context, runID string, serial int64, grp uint16) ([]catalog.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT eid, ses, sample
		FROM events
		WHERE run_id = ? AND serial = ?
		ORDER BY eid ASC
	`, runID, serial)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []catalog.Event
	for rows.Next() {
		var eid int64
		var ev catalog.Event
		if err := rows.Scan(&eid, &ev.SES, &ev.Sample); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.EID = uint64(eid)
		ev.GrpID = grp
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
