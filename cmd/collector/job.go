package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/collector/collector"
	"github.com/kbukum/collector/database"
	"github.com/kbukum/collector/database/migration"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/storage"
)

const sourceTable = "source_tracks"

// sourceTrack is one claimed row of the source table.
type sourceTrack struct {
	ID         int64
	Title      string
	Artist     string
	DurationMS int64
}

// track is the normalized record written to storage.
type track struct {
	SourceID    int64
	Title       string
	Artist      string
	Slug        string
	DurationSec float64
	CollectedAt time.Time
}

// trackJob moves unprocessed source rows into the collector's table. Each
// pass claims up to limit rows by marking them processed.
type trackJob struct {
	db    *database.DB
	limit int
	now   func() time.Time
}

var _ collector.Hooks[sourceTrack, track] = (*trackJob)(nil)

func newTrackJob(db *database.DB, limit int) *trackJob {
	return &trackJob{db: db, limit: limit, now: time.Now}
}

// Condition reports whether unprocessed rows remain.
func (j *trackJob) Condition(ctx context.Context) (bool, error) {
	var n int64
	err := j.db.WithContext(ctx).Table(sourceTable).Where("processed = ?", false).Count(&n).Error
	if err != nil {
		return false, database.FromDatabase(err, sourceTable)
	}
	return n > 0, nil
}

// Produce claims the next rows in id order.
func (j *trackJob) Produce(ctx context.Context) ([]sourceTrack, error) {
	var rows []map[string]interface{}
	err := j.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Table(sourceTable).
			Select("id", "title", "artist", "duration_ms").
			Where("processed = ?", false).
			Order("id").
			Limit(j.limit).
			Find(&rows).Error; err != nil {
			return err
		}
		records := make([]storage.Record, len(rows))
		for i, r := range rows {
			records[i] = r
		}
		ids := collector.DataToList("id", records)
		if len(ids) == 0 {
			return nil
		}
		return tx.Table(sourceTable).Where("id IN ?", ids).Update("processed", true).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, sourceTable)
	}

	out := make([]sourceTrack, 0, len(rows))
	for _, r := range rows {
		out = append(out, sourceTrack{
			ID:         toInt64(r["id"]),
			Title:      fmt.Sprint(r["title"]),
			Artist:     fmt.Sprint(r["artist"]),
			DurationMS: toInt64(r["duration_ms"]),
		})
	}
	return out, nil
}

// Consume normalizes a batch. Rows without a title are skipped.
func (j *trackJob) Consume(_ context.Context, batch []sourceTrack) ([]track, error) {
	now := j.now().UTC()
	out := make([]track, 0, len(batch))
	for _, s := range batch {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		artist := strings.TrimSpace(s.Artist)
		out = append(out, track{
			SourceID:    s.ID,
			Title:       title,
			Artist:      artist,
			Slug:        slugify(artist + " " + title),
			DurationSec: float64(s.DurationMS) / 1000,
			CollectedAt: now,
		})
	}
	return out, nil
}

// Prepare maps a track to table columns.
func (j *trackJob) Prepare(_ context.Context, t track) (storage.Record, error) {
	if t.DurationSec < 0 {
		return nil, fmt.Errorf("track %d has negative duration", t.SourceID)
	}
	return storage.Record{
		"source_id":    t.SourceID,
		"title":        t.Title,
		"artist":       t.Artist,
		"slug":         t.Slug,
		"duration_sec": t.DurationSec,
		"collected_at": t.CollectedAt,
	}, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

var (
	seedArtists = []string{"Nina Simone", "Miles Davis", "Björk", "Fela Kuti", "Kate Bush"}
	seedTitles  = []string{"Sinnerman", "So What", "Hyperballad", "Water No Get Enemy", "Running Up That Hill"}
)

// seedSource inserts n demo rows the first time it runs against a database.
func seedSource(db *database.DB, n int, log *logger.Logger) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	return migration.NewRunner(db.GormDB, log).Add(migration.Migration{
		ID:          fmt.Sprintf("seed_source_tracks_%d", n),
		Description: "demo source rows",
		Up: func(tx *gorm.DB) error {
			rows := make([]map[string]interface{}, n)
			for i := range rows {
				rows[i] = map[string]interface{}{
					"title":       seedTitles[i%len(seedTitles)],
					"artist":      seedArtists[i%len(seedArtists)],
					"duration_ms": 120_000 + (i%7)*15_000,
					"processed":   false,
				}
			}
			return tx.Table(sourceTable).CreateInBatches(rows, 200).Error
		},
	}).Run()
}
