package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

// CSV file names inside the data directory.
const (
	WordsFile    = "words.csv"
	ProgressFile = "user_progress.csv"
	MeaningsFile = "meanings.csv"
)

var (
	wordsHeader    = []string{"english", "japanese"}
	progressHeader = []string{"english_full", "last_reviewed", "next_review_date", "correct_streak", "total_correct", "total_incorrect"}
	meaningsHeader = []string{"word", "meaning"}
)

// NewCSVStores returns the file-backed stores rooted at dataDir.
func NewCSVStores(dataDir string) repository.Stores {
	return repository.Stores{
		Vocabulary: NewCSVVocabularySource(filepath.Join(dataDir, WordsFile)),
		Progress:   NewCSVProgressStore(filepath.Join(dataDir, ProgressFile)),
		Meanings:   NewCSVMeaningStore(filepath.Join(dataDir, MeaningsFile)),
	}
}

type csvVocabularySource struct{ path string }

// NewCSVVocabularySource reads sentence pairs from a two-column CSV with a header row.
func NewCSVVocabularySource(path string) repository.VocabularySource {
	return &csvVocabularySource{path: path}
}

func (s *csvVocabularySource) LoadPairs(ctx context.Context) ([]entity.SentencePair, error) {
	rows, err := readCSV(ctx, s.path)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	pairs := make([]entity.SentencePair, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		pairs = append(pairs, entity.SentencePair{Source: row[0], Target: row[1]})
	}
	return pairs, nil
}

func (s *csvVocabularySource) ReplacePairs(ctx context.Context, pairs []entity.SentencePair) error {
	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, []string{pair.Source, pair.Target})
	}
	return writeCSV(ctx, s.path, wordsHeader, rows)
}

type csvProgressStore struct {
	path string
	loc  *time.Location
}

// NewCSVProgressStore persists mastery rows in the legacy user_progress.csv layout.
func NewCSVProgressStore(path string) repository.ProgressStore {
	return &csvProgressStore{path: path, loc: time.Local}
}

func (s *csvProgressStore) LoadProgress(ctx context.Context) ([]repository.ProgressRecord, error) {
	rows, err := readCSV(ctx, s.path)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	columns := indexHeader(rows[0])
	records := make([]repository.ProgressRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		key := column(row, columns, "english_full")
		if key == "" {
			continue
		}
		record := repository.ProgressRecord{
			Key:            key,
			CorrectStreak:  entity.ParseCounter(column(row, columns, "correct_streak")),
			TotalCorrect:   entity.ParseCounter(column(row, columns, "total_correct")),
			TotalIncorrect: entity.ParseCounter(column(row, columns, "total_incorrect")),
		}
		if t, ok := entity.ParseDate(column(row, columns, "last_reviewed"), s.loc); ok {
			record.LastReviewed = t
		}
		// A zero NextReview is resolved to today by the catalogue.
		if t, ok := entity.ParseDate(column(row, columns, "next_review_date"), s.loc); ok {
			record.NextReview = t
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *csvProgressStore) ReplaceProgress(ctx context.Context, records []repository.ProgressRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Key,
			entity.FormatDate(r.LastReviewed),
			entity.FormatDate(r.NextReview),
			strconv.Itoa(r.CorrectStreak),
			strconv.Itoa(r.TotalCorrect),
			strconv.Itoa(r.TotalIncorrect),
		})
	}
	return writeCSV(ctx, s.path, progressHeader, rows)
}

type csvMeaningStore struct{ path string }

// NewCSVMeaningStore persists the word/meaning bank as word,meaning rows.
func NewCSVMeaningStore(path string) repository.MeaningStore {
	return &csvMeaningStore{path: path}
}

func (s *csvMeaningStore) LoadMeanings(ctx context.Context) ([]entity.MeaningItem, error) {
	rows, err := readCSV(ctx, s.path)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	columns := indexHeader(rows[0])
	items := make([]entity.MeaningItem, 0, len(rows)-1)
	for _, row := range rows[1:] {
		items = append(items, entity.MeaningItem{
			Word:    column(row, columns, "word"),
			Meaning: column(row, columns, "meaning"),
		})
	}
	return items, nil
}

func (s *csvMeaningStore) ReplaceMeanings(ctx context.Context, items []entity.MeaningItem) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Word, item.Meaning})
	}
	return writeCSV(ctx, s.path, meaningsHeader, rows)
}

// readCSV returns every record of path, header included. A missing file yields nil.
func readCSV(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := parseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// writeCSV replaces path through a temp file in the same directory.
func writeCSV(ctx context.Context, path string, header []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func column(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
