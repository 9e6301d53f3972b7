package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hindsightlabs/hindsight/store"
)

func (d *DB) CreateDecision(ctx context.Context, create *store.Decision) (*store.Decision, error) {
	stmt := `INSERT INTO decisions (id, timestamp, context, decision, reasoning, confidence, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		formatTime(create.Timestamp),
		create.Context,
		create.Decision,
		create.Reasoning,
		create.Confidence,
		marshalTags(create.Tags),
	)
	if err != nil {
		return nil, wrapWriteErr(err, "failed to create decision")
	}
	return create, nil
}

func (d *DB) ListDecisions(ctx context.Context, find *store.FindDecision) ([]*store.Decision, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.ResolvedOnly {
		where = append(where, "resolved = 1")
	}
	if find.Query != nil && *find.Query != "" {
		// instr keeps substring matching case-sensitive; LIKE would not.
		where = append(where, "(instr(context, ?) > 0 OR instr(decision, ?) > 0)")
		args = append(args, *find.Query, *find.Query)
	}
	if len(find.Keywords) > 0 {
		conditions := make([]string, 0, len(find.Keywords))
		for _, kw := range find.Keywords {
			conditions = append(conditions, "instr(lower(context), ?) > 0")
			args = append(args, strings.ToLower(kw))
		}
		where = append(where, "("+strings.Join(conditions, " OR ")+")")
	}

	query := `SELECT id, timestamp, context, decision, reasoning, confidence, outcome, outcome_score, resolved, tags
		FROM decisions WHERE ` + strings.Join(where, " AND ") + ` ORDER BY timestamp DESC`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list decisions")
	}
	defer rows.Close()

	list := make([]*store.Decision, 0)
	for rows.Next() {
		var (
			dec     store.Decision
			ts      string
			tagsRaw string
		)
		if err := rows.Scan(
			&dec.ID,
			&ts,
			&dec.Context,
			&dec.Decision,
			&dec.Reasoning,
			&dec.Confidence,
			&dec.Outcome,
			&dec.OutcomeScore,
			&dec.Resolved,
			&tagsRaw,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan decision")
		}
		if dec.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		dec.Tags = unmarshalTags(tagsRaw)
		list = append(list, &dec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate decisions")
	}

	return list, nil
}

func (d *DB) UpdateDecisionOutcome(ctx context.Context, update *store.UpdateDecisionOutcome) (bool, error) {
	if update == nil {
		return false, errors.New("update parameter cannot be nil")
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE decisions SET outcome = ?, outcome_score = ?, resolved = 1 WHERE id = ?",
		update.Outcome, update.Score, update.ID,
	)
	if err != nil {
		return false, wrapWriteErr(err, "failed to update decision outcome")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}
