package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hindsightlabs/hindsight/store"
)

// UpsertKnowledge creates or overwrites the fact stored under (category, key)
// inside a single transaction. expires_at is recomputed from now on every
// write; a ttl of 0 stores an empty expires_at, meaning never.
func (d *DB) UpsertKnowledge(ctx context.Context, upsert *store.UpsertKnowledge) (*store.Knowledge, error) {
	if upsert == nil {
		return nil, errors.New("upsert parameter cannot be nil")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapWriteErr(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now()
	expires := ""
	var expiresAt time.Time
	if upsert.TTLHours > 0 {
		expiresAt = now.Add(time.Duration(upsert.TTLHours) * time.Hour)
		expires = formatTime(expiresAt)
	}

	knowledge := &store.Knowledge{
		Category:  upsert.Category,
		Key:       upsert.Key,
		Value:     upsert.Value,
		Source:    upsert.Source,
		TTLHours:  upsert.TTLHours,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	var existingID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM knowledge WHERE category = ? AND key = ?",
		upsert.Category, upsert.Key,
	).Scan(&existingID)

	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			"UPDATE knowledge SET value = ?, source = ?, ttl_hours = ?, created_at = ?, expires_at = ? WHERE id = ?",
			upsert.Value, upsert.Source, upsert.TTLHours, formatTime(now), expires, existingID,
		); err != nil {
			return nil, wrapWriteErr(err, "failed to update knowledge")
		}
		knowledge.ID = existingID

	case errors.Is(err, sql.ErrNoRows):
		knowledge.ID = store.NewID("kn")
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO knowledge (id, category, key, value, source, ttl_hours, created_at, expires_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			knowledge.ID, upsert.Category, upsert.Key, upsert.Value, upsert.Source,
			upsert.TTLHours, formatTime(now), expires,
		); err != nil {
			return nil, wrapWriteErr(err, "failed to create knowledge")
		}

	default:
		return nil, errors.Wrap(err, "failed to look up existing knowledge")
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapWriteErr(err, "failed to commit knowledge upsert")
	}
	return knowledge, nil
}

// ListKnowledge physically purges expired rows store-wide, then returns the
// remaining entries newest first.
func (d *DB) ListKnowledge(ctx context.Context, find *store.FindKnowledge) ([]*store.Knowledge, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM knowledge WHERE expires_at != '' AND expires_at < ?",
		formatTime(time.Now()),
	); err != nil {
		return nil, wrapWriteErr(err, "failed to purge expired knowledge")
	}

	where, args := []string{"1 = 1"}, []any{}

	if find.Category != nil {
		where, args = append(where, "category = ?"), append(args, *find.Category)
	}
	if find.Key != nil {
		where, args = append(where, "key = ?"), append(args, *find.Key)
	}

	query := `SELECT id, category, key, value, source, ttl_hours, created_at, expires_at
		FROM knowledge WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list knowledge")
	}
	defer rows.Close()

	list := make([]*store.Knowledge, 0)
	for rows.Next() {
		var (
			k          store.Knowledge
			createdRaw string
			expiresRaw string
		)
		if err := rows.Scan(
			&k.ID,
			&k.Category,
			&k.Key,
			&k.Value,
			&k.Source,
			&k.TTLHours,
			&createdRaw,
			&expiresRaw,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge")
		}
		if k.CreatedAt, err = parseTime(createdRaw); err != nil {
			return nil, err
		}
		if expiresRaw != "" {
			if k.ExpiresAt, err = parseTime(expiresRaw); err != nil {
				return nil, err
			}
		}
		list = append(list, &k)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate knowledge")
	}

	return list, nil
}
