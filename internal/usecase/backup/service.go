package backup

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

const formatVersion = 1

// Table names used in backup files.
const (
	TableVocabulary = "vocabulary"
	TableProgress   = "progress"
	TableMeanings   = "meanings"
)

var errNoTablesSelected = errors.New("backup: no tables selected")

// tableLayouts lists the payload fields of every table; the schema hash is derived from it.
var tableLayouts = map[string][]string{
	TableVocabulary: {"source", "target"},
	TableProgress:   {"key", "last_reviewed", "next_review", "correct_streak", "total_correct", "total_incorrect"},
	TableMeanings:   {"word", "meaning"},
}

type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

// Service writes and restores NDJSON snapshots of the catalogue stores.
type Service struct {
	stores     repository.Stores
	loc        *time.Location
	clock      func() time.Time
	schemaHash string
}

type Option func(*Service)

// WithLocation sets the location used to parse calendar days on import.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService constructs a backup service over the provided stores.
func NewService(stores repository.Stores, opts ...Option) (*Service, error) {
	if stores.Vocabulary == nil || stores.Progress == nil || stores.Meanings == nil {
		return nil, errors.New("backup: vocabulary, progress and meaning stores are required")
	}
	svc := &Service{
		stores:     stores,
		loc:        time.Local,
		clock:      time.Now,
		schemaHash: computeSchemaHash(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	tables   []string
	reporter ProgressReporter
}

// WithTables restricts export to the provided table names.
func WithTables(tables []string) ExportOption {
	return func(cfg *exportConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	tables []string
}

// WithImportTables restricts import to the provided table names.
func WithImportTables(tables []string) ImportOption {
	return func(cfg *importConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	SchemaHash string         `json:"schema_hash,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	ExportedAt *time.Time      `json:"exported_at"`
	SchemaHash string          `json:"schema_hash"`
	Tables     []string        `json:"tables"`
	RowCounts  map[string]int  `json:"row_counts"`
	Payload    json.RawMessage `json:"payload"`
}

type vocabularyRow struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type progressRow struct {
	Key            string  `json:"key"`
	LastReviewed   *string `json:"last_reviewed"`
	NextReview     *string `json:"next_review"`
	CorrectStreak  int     `json:"correct_streak"`
	TotalCorrect   int     `json:"total_correct"`
	TotalIncorrect int     `json:"total_incorrect"`
}

type meaningRow struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
}

// snapshot holds the rows of every selected table.
type snapshot struct {
	pairs    []entity.SentencePair
	progress []repository.ProgressRecord
	meanings []entity.MeaningItem
}

func (s *snapshot) rows(table string) []any {
	switch table {
	case TableVocabulary:
		return lo.Map(s.pairs, func(p entity.SentencePair, _ int) any {
			return vocabularyRow{Source: p.Source, Target: p.Target}
		})
	case TableProgress:
		return lo.Map(s.progress, func(r repository.ProgressRecord, _ int) any {
			return progressRow{
				Key:            r.Key,
				LastReviewed:   datePtr(r.LastReviewed),
				NextReview:     datePtr(r.NextReview),
				CorrectStreak:  r.CorrectStreak,
				TotalCorrect:   r.TotalCorrect,
				TotalIncorrect: r.TotalIncorrect,
			}
		})
	case TableMeanings:
		return lo.Map(s.meanings, func(m entity.MeaningItem, _ int) any {
			return meaningRow(m)
		})
	default:
		return nil
	}
}

func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := selectTables(cfg.tables)
	if err != nil {
		return err
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	snap, err := s.load(ctx, tables)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(tables))
	for _, tbl := range tables {
		counts[tbl] = len(snap.rows(tbl))
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := s.clock().UTC()
	meta := record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		SchemaHash: s.schemaHash,
		Tables:     tables,
		RowCounts:  counts,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	for _, tbl := range tables {
		reporter.StartTable(tbl, counts[tbl])
		for _, row := range snap.rows(tbl) {
			if err := writeRecord(writer, record{Type: tbl, Payload: row}); err != nil {
				return err
			}
			reporter.Increment(tbl, 1)
		}
		reporter.FinishTable(tbl)
	}
	return writer.Flush()
}

// load reads the selected tables concurrently.
func (s *Service) load(ctx context.Context, tables []string) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	for _, tbl := range tables {
		switch tbl {
		case TableVocabulary:
			g.Go(func() error {
				pairs, err := s.stores.Vocabulary.LoadPairs(gctx)
				if err != nil {
					return fmt.Errorf("load %s: %w", TableVocabulary, err)
				}
				snap.pairs = pairs
				return nil
			})
		case TableProgress:
			g.Go(func() error {
				records, err := s.stores.Progress.LoadProgress(gctx)
				if err != nil {
					return fmt.Errorf("load %s: %w", TableProgress, err)
				}
				snap.progress = records
				return nil
			})
		case TableMeanings:
			g.Go(func() error {
				meanings, err := s.stores.Meanings.LoadMeanings(gctx)
				if err != nil {
					return fmt.Errorf("load %s: %w", TableMeanings, err)
				}
				snap.meanings = meanings
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := selectTables(cfg.tables)
	if err != nil {
		return err
	}
	requested := lo.SliceToMap(tables, func(t string) (string, struct{}) { return t, struct{}{} })

	br := bufio.NewReader(r)
	var (
		metaSeen bool
		meta     rawRecord
		snap     snapshot
	)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read backup: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			switch rec.Type {
			case "meta":
				metaSeen = true
				meta = rec
			default:
				if _, ok := requested[rec.Type]; !ok {
					// Skip records for tables not requested.
					break
				}
				if len(rec.Payload) == 0 {
					return fmt.Errorf("backup: missing payload for table %s", rec.Type)
				}
				if err := s.decodeRow(&snap, rec.Type, rec.Payload); err != nil {
					return err
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !metaSeen {
		return errors.New("backup: missing meta record")
	}
	if meta.Version != formatVersion {
		return fmt.Errorf("backup: unsupported format version %d", meta.Version)
	}
	if meta.SchemaHash != "" && meta.SchemaHash != s.schemaHash {
		return fmt.Errorf("backup: schema hash mismatch (%s)", meta.SchemaHash)
	}

	// Only tables present in the backup replace existing data.
	for _, tbl := range tables {
		if !lo.Contains(meta.Tables, tbl) {
			continue
		}
		if err := s.replace(ctx, tbl, &snap); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) decodeRow(snap *snapshot, table string, payload json.RawMessage) error {
	switch table {
	case TableVocabulary:
		var row vocabularyRow
		if err := json.Unmarshal(payload, &row); err != nil {
			return fmt.Errorf("decode payload for %s: %w", table, err)
		}
		snap.pairs = append(snap.pairs, entity.SentencePair{Source: row.Source, Target: row.Target})
	case TableProgress:
		var row progressRow
		if err := json.Unmarshal(payload, &row); err != nil {
			return fmt.Errorf("decode payload for %s: %w", table, err)
		}
		if strings.TrimSpace(row.Key) == "" {
			return fmt.Errorf("backup: missing key in %s row", table)
		}
		snap.progress = append(snap.progress, repository.ProgressRecord{
			Key:            row.Key,
			LastReviewed:   s.parseDate(row.LastReviewed),
			NextReview:     s.parseDate(row.NextReview),
			CorrectStreak:  entity.NonNegative(row.CorrectStreak),
			TotalCorrect:   entity.NonNegative(row.TotalCorrect),
			TotalIncorrect: entity.NonNegative(row.TotalIncorrect),
		})
	case TableMeanings:
		var row meaningRow
		if err := json.Unmarshal(payload, &row); err != nil {
			return fmt.Errorf("decode payload for %s: %w", table, err)
		}
		snap.meanings = append(snap.meanings, entity.MeaningItem(row))
	}
	return nil
}

func (s *Service) replace(ctx context.Context, table string, snap *snapshot) error {
	var err error
	switch table {
	case TableVocabulary:
		err = s.stores.Vocabulary.ReplacePairs(ctx, snap.pairs)
	case TableProgress:
		err = s.stores.Progress.ReplaceProgress(ctx, snap.progress)
	case TableMeanings:
		err = s.stores.Meanings.ReplaceMeanings(ctx, snap.meanings)
	}
	if err != nil {
		return fmt.Errorf("restore %s: %w", table, err)
	}
	return nil
}

func (s *Service) parseDate(raw *string) time.Time {
	if raw == nil {
		return time.Time{}
	}
	t, _ := entity.ParseDate(*raw, s.loc)
	return t
}

func datePtr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	formatted := entity.FormatDate(t)
	return &formatted
}

// TableNames returns every exportable table in deterministic order.
func TableNames() []string {
	names := lo.Keys(tableLayouts)
	sort.Strings(names)
	return names
}

func selectTables(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return TableNames(), nil
	}
	set := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		n := strings.TrimSpace(strings.ToLower(name))
		if n == "" {
			continue
		}
		if _, ok := tableLayouts[n]; !ok {
			return nil, fmt.Errorf("backup: unsupported table %q", name)
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		return nil, errNoTablesSelected
	}
	tables := lo.Keys(set)
	sort.Strings(tables)
	return tables, nil
}

func computeSchemaHash() string {
	builder := &strings.Builder{}
	for _, tbl := range TableNames() {
		builder.WriteString(tbl)
		builder.WriteString("|cols:")
		for _, col := range tableLayouts[tbl] {
			builder.WriteString(col)
			builder.WriteByte(';')
		}
		builder.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(builder.String()))
	return fmt.Sprintf("%x", sum[:])
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
