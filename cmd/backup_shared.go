package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	adapterrepo "github.com/eslsoft/vocquiz/internal/adapter/repository"
	"github.com/eslsoft/vocquiz/internal/app"
	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

func tablesFromConfig(key string) []string {
	return normalizeTables(viper.GetStringSlice(key))
}

func normalizeTables(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		result = append(result, strings.ToLower(name))
	}
	if len(result) == 0 {
		return nil
	}
	return lo.Uniq(result)
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func sheetFormat(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func isSpreadsheetPath(path string) bool {
	switch sheetFormat(path) {
	case ".csv", ".xlsx":
		return true
	default:
		return false
	}
}

// vocabularySheet opens a standalone .csv or .xlsx file of sentence pairs.
func vocabularySheet(path string) (repository.VocabularySource, error) {
	switch sheetFormat(path) {
	case ".csv":
		return adapterrepo.NewCSVVocabularySource(path), nil
	case ".xlsx":
		return adapterrepo.NewXLSXVocabularySource(path), nil
	default:
		return nil, fmt.Errorf("不支持的文件格式 %q (仅支持 .csv, .xlsx)", filepath.Ext(path))
	}
}

// meaningSheet opens a standalone .csv or .xlsx file of word/meaning rows.
func meaningSheet(path string) (repository.MeaningStore, error) {
	switch sheetFormat(path) {
	case ".csv":
		return adapterrepo.NewCSVMeaningStore(path), nil
	case ".xlsx":
		return adapterrepo.NewXLSXMeaningStore(path), nil
	default:
		return nil, fmt.Errorf("不支持的文件格式 %q (仅支持 .csv, .xlsx)", filepath.Ext(path))
	}
}

func exportSheet(ctx context.Context, container *app.Container, path string, meanings bool) (int, error) {
	if meanings {
		store, err := meaningSheet(path)
		if err != nil {
			return 0, err
		}
		items, err := container.Catalog.LoadMeanings(ctx)
		if err != nil {
			return 0, err
		}
		return len(items), store.ReplaceMeanings(ctx, items)
	}

	source, err := vocabularySheet(path)
	if err != nil {
		return 0, err
	}
	items, err := container.Catalog.LoadVocabulary(ctx)
	if err != nil {
		return 0, err
	}
	pairs := lo.Map(items, func(item entity.VocabularyItem, _ int) entity.SentencePair { return item.Pair() })
	return len(pairs), source.ReplacePairs(ctx, pairs)
}
