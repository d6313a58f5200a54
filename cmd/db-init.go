/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	adapterrepo "github.com/eslsoft/vocquiz/internal/adapter/repository"
	"github.com/eslsoft/vocquiz/internal/infrastructure/config"
	"github.com/eslsoft/vocquiz/internal/infrastructure/database"
	"github.com/eslsoft/vocquiz/internal/infrastructure/logger"
	"github.com/eslsoft/vocquiz/internal/repository"
)

// dbInitCmd creates the catalogue tables and optionally copies legacy CSV stores into them
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化数据库并迁移 CSV 数据",
	Long:  "在配置的 SQL 数据库中创建 vocabulary, progress, meanings 表。使用 --from-csv 指定旧版 CSV 数据目录时，会用其中的 words.csv, user_progress.csv, meanings.csv 替换数据库内容。注意: sqlite3 驱动 (go-sqlite3) 需要 CGO_ENABLED=1 构建，sqlite 驱动为纯 Go 实现。",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fromCSV, _ := cmd.Flags().GetString("from-csv")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		if !cfg.UsesSQL() {
			return fmt.Errorf("当前存储驱动为 %s，请通过 --driver 或 STORAGE_DRIVER 选择 SQL 驱动", cfg.DatabaseDriver())
		}
		log, err := logger.NewLogger(cfg)
		if err != nil {
			return err
		}

		db, cleanup, err := database.Open(cfg, log)
		if err != nil {
			return fmt.Errorf("连接数据库失败: %w", err)
		}
		defer cleanup()

		if err := adapterrepo.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("执行数据库迁移失败: %w", err)
		}
		cmd.Printf("数据库迁移完成 (%s)\n", cfg.DatabaseDriver())
		if fromCSV == "" {
			return nil
		}

		counts, err := migrateStores(ctx, adapterrepo.NewCSVStores(fromCSV), adapterrepo.NewSQLStores(db))
		if err != nil {
			return fmt.Errorf("迁移 CSV 数据失败: %w", err)
		}
		cmd.Printf("迁移完成: 例句 %d, 进度 %d, 词义 %d\n", counts.vocabulary, counts.progress, counts.meanings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("from-csv", "", "旧版 CSV 数据目录，迁移其内容到数据库")
}

type migrationCounts struct {
	vocabulary int
	progress   int
	meanings   int
}

// migrateStores copies every row of src into dst as stored, without normalisation.
func migrateStores(ctx context.Context, src, dst repository.Stores) (migrationCounts, error) {
	var counts migrationCounts

	pairs, err := src.Vocabulary.LoadPairs(ctx)
	if err != nil {
		return counts, fmt.Errorf("load vocabulary: %w", err)
	}
	if err := dst.Vocabulary.ReplacePairs(ctx, pairs); err != nil {
		return counts, fmt.Errorf("write vocabulary: %w", err)
	}
	counts.vocabulary = len(pairs)

	records, err := src.Progress.LoadProgress(ctx)
	if err != nil {
		return counts, fmt.Errorf("load progress: %w", err)
	}
	if err := dst.Progress.ReplaceProgress(ctx, records); err != nil {
		return counts, fmt.Errorf("write progress: %w", err)
	}
	counts.progress = len(records)

	meanings, err := src.Meanings.LoadMeanings(ctx)
	if err != nil {
		return counts, fmt.Errorf("load meanings: %w", err)
	}
	if err := dst.Meanings.ReplaceMeanings(ctx, meanings); err != nil {
		return counts, fmt.Errorf("write meanings: %w", err)
	}
	counts.meanings = len(meanings)
	return counts, nil
}
