package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hindsightlabs/hindsight/store"
)

// UpsertPattern reinforces the matching active pattern or inserts a new one.
// The find-or-reinforce branch runs inside a single transaction so two
// concurrent adds of the same rule cannot both insert.
func (d *DB) UpsertPattern(ctx context.Context, upsert *store.UpsertPattern) (*store.Pattern, error) {
	if upsert == nil {
		return nil, errors.New("upsert parameter cannot be nil")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapWriteErr(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now()

	var (
		existingID    string
		evidenceCount int
		confidence    float64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, evidence_count, confidence FROM patterns WHERE pattern_type = ? AND description = ? AND active = 1",
		upsert.PatternType, upsert.Description,
	).Scan(&existingID, &evidenceCount, &confidence)

	switch {
	case err == nil:
		// Reinforce: sum evidence, nudge confidence toward the cap.
		evidenceCount += upsert.EvidenceCount
		confidence += store.ReinforceIncrement
		if confidence > store.ConfidenceCap {
			confidence = store.ConfidenceCap
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE patterns SET evidence_count = ?, confidence = ?, updated_at = ? WHERE id = ?",
			evidenceCount, confidence, formatTime(now), existingID,
		); err != nil {
			return nil, wrapWriteErr(err, "failed to reinforce pattern")
		}
		if err := tx.Commit(); err != nil {
			return nil, wrapWriteErr(err, "failed to commit pattern reinforcement")
		}
		return &store.Pattern{
			ID:            existingID,
			PatternType:   upsert.PatternType,
			Description:   upsert.Description,
			EvidenceCount: evidenceCount,
			Confidence:    confidence,
			Active:        true,
			UpdatedAt:     now,
		}, nil

	case errors.Is(err, sql.ErrNoRows):
		pattern := &store.Pattern{
			ID:            store.NewID("pat"),
			PatternType:   upsert.PatternType,
			Description:   upsert.Description,
			EvidenceCount: upsert.EvidenceCount,
			Confidence:    upsert.Confidence,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
			Tags:          upsert.Tags,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO patterns (id, pattern_type, description, evidence_count, confidence, active, created_at, updated_at, tags)
				VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
			pattern.ID, pattern.PatternType, pattern.Description, pattern.EvidenceCount,
			pattern.Confidence, formatTime(now), formatTime(now), marshalTags(pattern.Tags),
		); err != nil {
			return nil, wrapWriteErr(err, "failed to create pattern")
		}
		if err := tx.Commit(); err != nil {
			return nil, wrapWriteErr(err, "failed to commit pattern insert")
		}
		return pattern, nil

	default:
		return nil, errors.Wrap(err, "failed to look up existing pattern")
	}
}

func (d *DB) ListActivePatterns(ctx context.Context, find *store.FindPattern) ([]*store.Pattern, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	where, args := []string{"active = 1"}, []any{}

	if find.PatternType != nil {
		where, args = append(where, "pattern_type = ?"), append(args, *find.PatternType)
	}
	if find.MinConfidence > 0 {
		where, args = append(where, "confidence >= ?"), append(args, find.MinConfidence)
	}

	query := `SELECT id, pattern_type, description, evidence_count, confidence, active, created_at, updated_at, tags
		FROM patterns WHERE ` + strings.Join(where, " AND ") + ` ORDER BY confidence DESC, evidence_count DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list patterns")
	}
	defer rows.Close()

	list := make([]*store.Pattern, 0)
	for rows.Next() {
		var (
			p          store.Pattern
			createdRaw string
			updatedRaw string
			tagsRaw    string
		)
		if err := rows.Scan(
			&p.ID,
			&p.PatternType,
			&p.Description,
			&p.EvidenceCount,
			&p.Confidence,
			&p.Active,
			&createdRaw,
			&updatedRaw,
			&tagsRaw,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan pattern")
		}
		if p.CreatedAt, err = parseTime(createdRaw); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updatedRaw); err != nil {
			return nil, err
		}
		p.Tags = unmarshalTags(tagsRaw)
		list = append(list, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate patterns")
	}

	return list, nil
}

func (d *DB) DeactivatePattern(ctx context.Context, id string) (bool, error) {
	result, err := d.db.ExecContext(ctx, "UPDATE patterns SET active = 0 WHERE id = ?", id)
	if err != nil {
		return false, wrapWriteErr(err, "failed to deactivate pattern")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}
