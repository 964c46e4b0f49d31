package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubspace/internal/config"
	"clubspace/internal/interval"
	"clubspace/internal/model"
	"clubspace/internal/pricing"
	"clubspace/internal/timeutil"
)

// GetSpace returns a space by ID.
func (s *Store) GetSpace(ctx context.Context, id int64) (*model.Space, error) {
	var sp model.Space
	err := s.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, ''), capacity, is_active, created_at, updated_at
		FROM spaces WHERE id = ?`,
		id,
	).Scan(&sp.ID, &sp.Name, &sp.Description, &sp.Capacity, &sp.IsActive, &sp.CreatedAt, &sp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// ListActiveSpaces returns every active space ordered by name.
func (s *Store) ListActiveSpaces(ctx context.Context) ([]model.Space, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), capacity, is_active, created_at, updated_at
		FROM spaces WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []model.Space
	for rows.Next() {
		var sp model.Space
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Description, &sp.Capacity, &sp.IsActive, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		spaces = append(spaces, sp)
	}
	return spaces, rows.Err()
}

// PricedBlocks returns the configured priced blocks of a space.
func (s *Store) PricedBlocks(ctx context.Context, spaceID int64) ([]pricing.PricedBlock, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT space_id, weekday, start_minute, end_minute, price_cents
		FROM priced_blocks WHERE space_id = ?
		ORDER BY weekday, start_minute`,
		spaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []pricing.PricedBlock
	for rows.Next() {
		var spID int64
		var weekday, startMin, endMin int
		var cents int64
		if err := rows.Scan(&spID, &weekday, &startMin, &endMin, &cents); err != nil {
			return nil, err
		}
		blocks = append(blocks, pricing.PricedBlock{
			SpaceID: spID,
			Weekday: timeutil.Weekday(weekday),
			Slot: interval.Interval{
				Start: timeutil.TimeOfDay(startMin),
				End:   timeutil.TimeOfDay(endMin),
			},
			Price: pricing.Money(cents),
		})
	}
	return blocks, rows.Err()
}

// SyncSpacesFromConfig upserts the configured spaces and replaces their
// priced blocks. Spaces absent from the config are deactivated, not deleted,
// so their booking history survives.
func (s *Store) SyncSpacesFromConfig(ctx context.Context, cfg *config.SpacesConfig) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	seen := make(map[int64]bool, len(cfg.Spaces))

	for _, sp := range cfg.Spaces {
		seen[sp.ID] = true
		_, err := tx.ExecContext(ctx, `
			INSERT INTO spaces (id, name, description, capacity, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				capacity = excluded.capacity,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			sp.ID, sp.Name, sp.Description, sp.Capacity, sp.IsActive, now, now,
		)
		if err != nil {
			return fmt.Errorf("upsert space %d: %w", sp.ID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM priced_blocks WHERE space_id = ?", sp.ID); err != nil {
			return fmt.Errorf("clear priced blocks for space %d: %w", sp.ID, err)
		}
		for _, b := range sp.PricedBlocks {
			blk, err := b.Parse()
			if err != nil {
				return fmt.Errorf("space %d priced block: %w", sp.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO priced_blocks (space_id, weekday, start_minute, end_minute, price_cents)
				VALUES (?, ?, ?, ?, ?)`,
				sp.ID, int(blk.Weekday), int(blk.Slot.Start), int(blk.Slot.End), int64(blk.Price),
			)
			if err != nil {
				return fmt.Errorf("insert priced block for space %d: %w", sp.ID, err)
			}
		}
	}

	rows, err := tx.QueryContext(ctx, "SELECT id FROM spaces WHERE is_active = 1")
	if err != nil {
		return err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, "UPDATE spaces SET is_active = 0, updated_at = ? WHERE id = ?", now, id); err != nil {
			return fmt.Errorf("deactivate space %d: %w", id, err)
		}
	}

	return tx.Commit()
}
