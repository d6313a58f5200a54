package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

// XLSXSheet is the sheet written by the spreadsheet stores. Reading uses the first sheet.
const XLSXSheet = "Sheet1"

type xlsxVocabularySource struct{ path string }

// NewXLSXVocabularySource reads sentence pairs from the first two columns of a workbook.
// The first row is a header.
func NewXLSXVocabularySource(path string) repository.VocabularySource {
	return &xlsxVocabularySource{path: path}
}

func (s *xlsxVocabularySource) LoadPairs(ctx context.Context) ([]entity.SentencePair, error) {
	rows, err := readXLSX(ctx, s.path)
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

func (s *xlsxVocabularySource) ReplacePairs(ctx context.Context, pairs []entity.SentencePair) error {
	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, []string{pair.Source, pair.Target})
	}
	return writeXLSX(ctx, s.path, wordsHeader, rows)
}

type xlsxMeaningStore struct{ path string }

// NewXLSXMeaningStore reads word/meaning rows from the first two columns of a workbook.
func NewXLSXMeaningStore(path string) repository.MeaningStore {
	return &xlsxMeaningStore{path: path}
}

func (s *xlsxMeaningStore) LoadMeanings(ctx context.Context) ([]entity.MeaningItem, error) {
	rows, err := readXLSX(ctx, s.path)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	items := make([]entity.MeaningItem, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var item entity.MeaningItem
		if len(row) > 0 {
			item.Word = row[0]
		}
		if len(row) > 1 {
			item.Meaning = row[1]
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *xlsxMeaningStore) ReplaceMeanings(ctx context.Context, items []entity.MeaningItem) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Word, item.Meaning})
	}
	return writeXLSX(ctx, s.path, meaningsHeader, rows)
}

func readXLSX(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func writeXLSX(ctx context.Context, path string, header []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	write := func(rowNo int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(XLSXSheet, cell, &row)
	}
	if err := write(1, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, values := range rows {
		if err := write(i+2, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
