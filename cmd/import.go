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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocquiz/internal/app"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.xlsx>",
	Short: "从 CSV 或 Excel 文件导入例句库或词义库",
	Long: `用文件内容替换例句库 (两列: 英文例句, 译文，首行为表头)，
学习进度按例句同步: 已有条目保留进度，新条目从今天开始，删除的条目丢弃进度。
使用 --meanings 时替换词义库 (两列: word, meaning)，不完整的行会被忽略。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]
		meanings, _ := cmd.Flags().GetBool("meanings")

		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("打开导入文件失败: %w", err)
		}

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		if meanings {
			store, err := meaningSheet(path)
			if err != nil {
				return err
			}
			items, err := store.LoadMeanings(ctx)
			if err != nil {
				return fmt.Errorf("读取词义失败: %w", err)
			}
			n, err := container.Catalog.ReplaceMeanings(ctx, items)
			if err != nil {
				return fmt.Errorf("导入词义失败: %w", err)
			}
			cmd.Printf("导入完成: %d 条词义 (忽略 %d 行)\n", n, len(items)-n)
			return nil
		}

		source, err := vocabularySheet(path)
		if err != nil {
			return err
		}
		pairs, err := source.LoadPairs(ctx)
		if err != nil {
			return fmt.Errorf("读取例句失败: %w", err)
		}
		n, err := container.Catalog.ReplaceVocabulary(ctx, pairs)
		if err != nil {
			return fmt.Errorf("导入例句失败: %w", err)
		}
		cmd.Printf("导入完成: %d 条例句 (文件共 %d 行)\n", n, len(pairs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("meanings", false, "导入词义库而不是例句库")
}
