package store

import (
	"context"
	"time"
)

// InsertLegacy writes a solution row verbatim, including a NULL or malformed
// cells column.
func (s *SQLite) InsertLegacy(ctx context.Context, id, date, mainCells string, cells *string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO solution_grids (id, date, main_cells, cells, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		id, date, mainCells, cells, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// insertRaw writes a row with an arbitrary created_at value.
func (s *SQLite) insertRaw(ctx context.Context, id, date, mainCells, createdAt string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO solution_grids (id, date, main_cells, cells, created_at)
        VALUES (?, ?, ?, NULL, ?)`,
		id, date, mainCells, createdAt)
	return err
}

func (p *Postgres) truncate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `TRUNCATE items, solution_grids`)
	return err
}

// PutLegacy writes a raw solution document for date, bypassing SETNX.
func (r *Redis) PutLegacy(ctx context.Context, date string, doc []byte) error {
	if err := r.client.Set(ctx, r.solutionKey(date), doc, 0).Err(); err != nil {
		return err
	}
	return r.client.SAdd(ctx, r.datesKey(), date).Err()
}

// flush deletes every key under the prefix.
func (r *Redis) flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+":*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if cursor = next; cursor == 0 {
			return nil
		}
	}
}
