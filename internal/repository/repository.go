// Package repository persists annotated items and batch jobs in SQLite.
// The store is a results table for export and restarts; features and
// snapshots are always recomputed from items in memory.
package repository

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reputation-service/internal/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Repository handles data storage
type Repository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New opens the database at dbPath and applies pending migrations.
func New(dbPath string, logger *zap.Logger) (*Repository, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; the annotation workers funnel through it
	db.SetMaxOpenConns(1)

	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Repository initialized", zap.String("db_path", dbPath))

	return &Repository{db: db, logger: logger}, nil
}

// Migrate runs the embedded migrations up to the latest version.
func Migrate(db *sqlx.DB, logger *zap.Logger) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to get database instance for migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("Database migration was run successfully", zap.Uint("version", version))
	return nil
}

type itemRow struct {
	ID                  string    `db:"id"`
	Kind                string    `db:"kind"`
	ParentID            string    `db:"parent_id"`
	PublishedAt         time.Time `db:"published_at"`
	OriginalText        string    `db:"original_text"`
	TranslatedText      string    `db:"translated_text"`
	Language            string    `db:"language"`
	Views               int       `db:"views"`
	Likes               int       `db:"likes"`
	Replies             int       `db:"replies"`
	Favorites           int       `db:"favorites"`
	ThreatLevel         int       `db:"threat_level"`
	ThreatScore         float64   `db:"threat_score"`
	SentimentOriginal   float64   `db:"sentiment_original"`
	SentimentTranslated float64   `db:"sentiment_translated"`
	Annotations         string    `db:"annotations"`
	ProcessedAt         time.Time `db:"processed_at"`
}

func toRow(it *models.ContentItem) (itemRow, error) {
	ann, err := json.Marshal(it.Annotations)
	if err != nil {
		return itemRow{}, fmt.Errorf("failed to encode annotations of %s: %w", it.ID, err)
	}
	processed := it.Annotations.ProcessedAt
	if processed.IsZero() {
		processed = time.Now().UTC()
	}
	return itemRow{
		ID:                  it.ID,
		Kind:                it.Kind.String(),
		ParentID:            it.ParentID,
		PublishedAt:         it.Timestamp.UTC(),
		OriginalText:        it.OriginalText,
		TranslatedText:      it.TranslatedText,
		Language:            it.LanguageHint.String(),
		Views:               it.Engagement.Views,
		Likes:               it.Engagement.Likes,
		Replies:             it.Engagement.Replies,
		Favorites:           it.Engagement.Favorites,
		ThreatLevel:         int(it.Annotations.Threat.Level),
		ThreatScore:         it.Annotations.Threat.AmplifiedScore,
		SentimentOriginal:   it.Annotations.Original.Sentiment.Score,
		SentimentTranslated: it.Annotations.Translated.Sentiment.Score,
		Annotations:         string(ann),
		ProcessedAt:         processed.UTC(),
	}, nil
}

func (r itemRow) item() (*models.ContentItem, error) {
	kind, err := models.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	hint, err := models.ParseLanguageHint(r.Language)
	if err != nil {
		return nil, err
	}
	it := &models.ContentItem{
		ID:             r.ID,
		Kind:           kind,
		ParentID:       r.ParentID,
		OriginalText:   r.OriginalText,
		TranslatedText: r.TranslatedText,
		LanguageHint:   hint,
		Timestamp:      r.PublishedAt.UTC(),
		Engagement: models.Engagement{
			Views:     r.Views,
			Likes:     r.Likes,
			Replies:   r.Replies,
			Favorites: r.Favorites,
		},
	}
	if err := json.Unmarshal([]byte(r.Annotations), &it.Annotations); err != nil {
		return nil, fmt.Errorf("failed to decode annotations of %s: %w", r.ID, err)
	}
	return it, nil
}

const upsertItem = `
	INSERT INTO annotated_items (
		id, kind, parent_id, published_at, original_text, translated_text, language,
		views, likes, replies, favorites, threat_level, threat_score,
		sentiment_original, sentiment_translated, annotations, processed_at
	) VALUES (
		:id, :kind, :parent_id, :published_at, :original_text, :translated_text, :language,
		:views, :likes, :replies, :favorites, :threat_level, :threat_score,
		:sentiment_original, :sentiment_translated, :annotations, :processed_at
	)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		parent_id = excluded.parent_id,
		published_at = excluded.published_at,
		original_text = excluded.original_text,
		translated_text = excluded.translated_text,
		language = excluded.language,
		views = excluded.views,
		likes = excluded.likes,
		replies = excluded.replies,
		favorites = excluded.favorites,
		threat_level = excluded.threat_level,
		threat_score = excluded.threat_score,
		sentiment_original = excluded.sentiment_original,
		sentiment_translated = excluded.sentiment_translated,
		annotations = excluded.annotations,
		processed_at = excluded.processed_at`

// SaveItems upserts items by id in one transaction.
func (r *Repository) SaveItems(items []*models.ContentItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(upsertItem)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if it == nil {
			continue
		}
		row, err := toRow(it)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("failed to save item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}
	return nil
}

// GetItems returns stored items ordered by timestamp. minLevel filters on
// the threat level; ThreatNone returns everything.
func (r *Repository) GetItems(minLevel models.ThreatLevel) ([]*models.ContentItem, error) {
	var rows []itemRow
	err := r.db.Select(&rows, `
		SELECT * FROM annotated_items
		WHERE threat_level >= ?
		ORDER BY published_at, id`, int(minLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	items := make([]*models.ContentItem, 0, len(rows))
	for _, row := range rows {
		it, err := row.item()
		if err != nil {
			r.logger.Warn("Skipping unreadable stored item", zap.String("item_id", row.ID), zap.Error(err))
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// GetStats returns item counts per threat level and the stored total.
func (r *Repository) GetStats() (map[string]interface{}, error) {
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM annotated_items`); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	var levels []struct {
		Level int `db:"threat_level"`
		Count int `db:"count"`
	}
	if err := r.db.Select(&levels, `
		SELECT threat_level, COUNT(*) AS count
		FROM annotated_items GROUP BY threat_level`); err != nil {
		return nil, fmt.Errorf("failed to count threat levels: %w", err)
	}

	byLevel := make(map[string]int, len(levels))
	for _, l := range levels {
		byLevel[models.ThreatLevel(l.Level).String()] = l.Count
	}

	return map[string]interface{}{
		"total_items":     total,
		"threat_by_level": byLevel,
	}, nil
}

// CreateJob creates a new batch job
func (r *Repository) CreateJob(job *models.Job) error {
	_, err := r.db.NamedExec(`
		INSERT INTO jobs (id, status, total_count, processed_count, failed_count, created_at, completed_at, error_message)
		VALUES (:id, :status, :total_count, :processed_count, :failed_count, :created_at, :completed_at, :error_message)`,
		job)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJob updates job progress
func (r *Repository) UpdateJob(job *models.Job) error {
	_, err := r.db.NamedExec(`
		UPDATE jobs
		SET status = :status, processed_count = :processed_count, failed_count = :failed_count,
			completed_at = :completed_at, error_message = :error_message
		WHERE id = :id`,
		job)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID
func (r *Repository) GetJob(jobID string) (*models.Job, error) {
	job := &models.Job{}
	err := r.db.Get(job, `SELECT * FROM jobs WHERE id = ?`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
