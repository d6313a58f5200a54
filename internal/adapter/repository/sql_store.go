package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/infrastructure/database"
	"github.com/eslsoft/vocquiz/internal/repository"
)

// insertBatchSize keeps multi-row inserts under the sqlite bind-variable limit.
const insertBatchSize = 200

type vocabularyRow struct {
	Position int    `db:"position"`
	Source   string `db:"source"`
	Target   string `db:"target"`
}

type progressRow struct {
	SourceKey      string         `db:"source_key"`
	LastReviewed   sql.NullString `db:"last_reviewed"`
	NextReview     sql.NullString `db:"next_review"`
	CorrectStreak  int            `db:"correct_streak"`
	TotalCorrect   int            `db:"total_correct"`
	TotalIncorrect int            `db:"total_incorrect"`
}

type meaningRow struct {
	Position int    `db:"position"`
	Word     string `db:"word"`
	Meaning  string `db:"meaning"`
}

// SQLStore keeps the catalogue in three tables of a SQL database.
type SQLStore struct {
	db  *database.DB
	loc *time.Location
}

// NewSQLStore wraps an opened database.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db, loc: time.Local}
}

// NewSQLStores exposes one SQLStore as the three catalogue stores.
func NewSQLStores(db *database.DB) repository.Stores {
	store := NewSQLStore(db)
	return repository.Stores{Vocabulary: store, Progress: store, Meanings: store}
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.db.Dialect)
}

func (s *SQLStore) LoadPairs(ctx context.Context) ([]entity.SentencePair, error) {
	query, args := s.builder().
		Select("position", "source", "target").
		From(s.builder().Table(tableVocabulary)).
		OrderBy("position").
		Query()

	var rows []vocabularyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select vocabulary: %w", err)
	}
	pairs := make([]entity.SentencePair, 0, len(rows))
	for _, row := range rows {
		pairs = append(pairs, entity.SentencePair{Source: row.Source, Target: row.Target})
	}
	return pairs, nil
}

func (s *SQLStore) ReplacePairs(ctx context.Context, pairs []entity.SentencePair) error {
	return s.replace(ctx, tableVocabulary, []string{"position", "source", "target"}, len(pairs), func(i int) []any {
		return []any{i, pairs[i].Source, pairs[i].Target}
	})
}

func (s *SQLStore) LoadProgress(ctx context.Context) ([]repository.ProgressRecord, error) {
	query, args := s.builder().
		Select("source_key", "last_reviewed", "next_review", "correct_streak", "total_correct", "total_incorrect").
		From(s.builder().Table(tableProgress)).
		OrderBy("source_key").
		Query()

	var rows []progressRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select progress: %w", err)
	}
	records := make([]repository.ProgressRecord, 0, len(rows))
	for _, row := range rows {
		record := repository.ProgressRecord{
			Key:            row.SourceKey,
			CorrectStreak:  entity.NonNegative(row.CorrectStreak),
			TotalCorrect:   entity.NonNegative(row.TotalCorrect),
			TotalIncorrect: entity.NonNegative(row.TotalIncorrect),
		}
		if t, ok := entity.ParseDate(row.LastReviewed.String, s.loc); ok {
			record.LastReviewed = t
		}
		if t, ok := entity.ParseDate(row.NextReview.String, s.loc); ok {
			record.NextReview = t
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *SQLStore) ReplaceProgress(ctx context.Context, records []repository.ProgressRecord) error {
	return s.replace(ctx, tableProgress, progressColumns, len(records), func(i int) []any {
		return progressValues(records[i])
	})
}

// UpsertProgress writes one row with INSERT ... ON CONFLICT DO UPDATE.
func (s *SQLStore) UpsertProgress(ctx context.Context, record repository.ProgressRecord) error {
	query, args := s.builder().
		Insert(tableProgress).
		Columns(progressColumns...).
		Values(progressValues(record)...).
		OnConflict(
			entsql.ConflictColumns("source_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert progress %q: %w", record.Key, err)
	}
	return nil
}

func (s *SQLStore) LoadMeanings(ctx context.Context) ([]entity.MeaningItem, error) {
	query, args := s.builder().
		Select("position", "word", "meaning").
		From(s.builder().Table(tableMeanings)).
		OrderBy("position").
		Query()

	var rows []meaningRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select meanings: %w", err)
	}
	items := make([]entity.MeaningItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, entity.MeaningItem{Word: row.Word, Meaning: row.Meaning})
	}
	return items, nil
}

func (s *SQLStore) ReplaceMeanings(ctx context.Context, items []entity.MeaningItem) error {
	return s.replace(ctx, tableMeanings, []string{"position", "word", "meaning"}, len(items), func(i int) []any {
		return []any{i, items[i].Word, items[i].Meaning}
	})
}

var progressColumns = []string{"source_key", "last_reviewed", "next_review", "correct_streak", "total_correct", "total_incorrect"}

func progressValues(r repository.ProgressRecord) []any {
	return []any{
		r.Key,
		nullableDate(r.LastReviewed),
		nullableDate(r.NextReview),
		r.CorrectStreak,
		r.TotalCorrect,
		r.TotalIncorrect,
	}
}

func nullableDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(entity.DateLayout), Valid: true}
}

// replace deletes every row of table and inserts n rows in one transaction.
func (s *SQLStore) replace(ctx context.Context, table string, columns []string, n int, values func(i int) []any) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := s.builder().Delete(table).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for start := 0; start < n; start += insertBatchSize {
		end := min(start+insertBatchSize, n)
		if err := s.insertBatch(ctx, tx, table, columns, start, end, values); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sqlx.Tx, table string, columns []string, start, end int, values func(i int) []any) error {
	insert := s.builder().Insert(table).Columns(columns...)
	for i := start; i < end; i++ {
		insert.Values(values(i)...)
	}
	query, args := insert.Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s rows %d-%d: %w", table, start, end, err)
	}
	return nil
}
