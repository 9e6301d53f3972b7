package sqlite

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/hindsightlabs/hindsight/store"
)

// Stats derives the aggregate view from the three entity tables plus the
// store file size. Nothing here maintains counters of its own.
func (d *DB) Stats(ctx context.Context) (*store.AgentStats, error) {
	stats := &store.AgentStats{}

	scalars := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM decisions", &stats.TotalDecisions},
		{"SELECT COUNT(*) FROM decisions WHERE resolved = 1", &stats.ResolvedDecisions},
		{"SELECT COUNT(*) FROM decisions WHERE resolved = 1 AND outcome_score > 0", &stats.WinCount},
		{"SELECT COUNT(*) FROM decisions WHERE resolved = 1 AND outcome_score < 0", &stats.LossCount},
		{"SELECT COUNT(*) FROM patterns WHERE active = 1", &stats.ActivePatterns},
		{"SELECT COUNT(*) FROM knowledge", &stats.TotalKnowledge},
	}
	for _, s := range scalars {
		if err := d.db.QueryRowContext(ctx, s.query).Scan(s.dest); err != nil {
			return nil, errors.Wrapf(err, "failed stats query %q", s.query)
		}
	}
	stats.UnresolvedDecisions = stats.TotalDecisions - stats.ResolvedDecisions

	if err := d.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(confidence), 0) FROM decisions WHERE resolved = 1",
	).Scan(&stats.AvgConfidence); err != nil {
		return nil, errors.Wrap(err, "failed to average resolved confidence")
	}
	stats.AvgConfidence = math.Round(stats.AvgConfidence*1000) / 1000

	weekAgo := formatTime(time.Now().AddDate(0, 0, -7))
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM patterns WHERE created_at > ?", weekAgo,
	).Scan(&stats.RecentPatterns7d); err != nil {
		return nil, errors.Wrap(err, "failed to count recent patterns")
	}

	graded := stats.WinCount + stats.LossCount
	if graded < 1 {
		graded = 1
	}
	stats.WinRate = math.Round(float64(stats.WinCount)/float64(graded)*1000) / 10

	if info, err := os.Stat(d.profile.DSN); err == nil {
		stats.DBSizeKB = math.Round(float64(info.Size())/1024*10) / 10
	}

	return stats, nil
}
