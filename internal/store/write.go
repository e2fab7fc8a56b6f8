package store

import (
	"context"
	"fmt"

	"github.com/hazardlab/sesgen/internal/sampler"
)

// WriteBatch persists one sampled batch in a single transaction.
//
// Uses ON CONFLICT(run_id) DO NOTHING for idempotency: writing the same
// batch twice leaves the first write untouched.
func (s *Store) WriteBatch(ctx context.Context, scenarioName string, params sampler.Params, batch *sampler.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, scenario, seed, ses_per_path, samples, num_ruptures, num_events)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		batch.RunID,
		scenarioName,
		params.Seed,
		params.SESPerLogicTreePath,
		params.Samples,
		batch.NumRuptures,
		batch.NumEvents,
	)
	if err != nil {
		return fmt.Errorf("write batch: insert run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Run already stored; the batch contents are immutable.
		return nil
	}

	for _, ebr := range batch.EBRuptures {
		sidsJSON, err := marshalSIDs(ebr.SIDs)
		if err != nil {
			return fmt.Errorf("write batch: rupture %d: %w", ebr.Serial, err)
		}
		grp := uint16(0)
		if len(ebr.Events) > 0 {
			grp = ebr.Events[0].GrpID
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO eb_ruptures (run_id, serial, source_id, grp_id, sids)
			VALUES (?, ?, ?, ?, ?)
		`, batch.RunID, ebr.Serial, ebr.SourceID, grp, sidsJSON); err != nil {
			return fmt.Errorf("write batch: insert rupture %d: %w", ebr.Serial, err)
		}

		for _, ev := range ebr.Events {
			// SQLite integers are signed; event IDs round-trip through
			// two's complement.
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO events (run_id, eid, serial, ses, sample)
				VALUES (?, ?, ?, ?, ?)
			`, batch.RunID, int64(ev.EID), ebr.Serial, ev.SES, ev.Sample); err != nil {
				return fmt.Errorf("write batch: insert event %d: %w", ev.EID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write batch: commit: %w", err)
	}
	return nil
}
