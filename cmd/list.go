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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocquiz/internal/app"
	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出例句及其掌握情况",
	Long: `列出例句库条目。--filter 使用 CEL 表达式 (仅支持 && 连接)，例如:

  vocquiz list --filter "accuracy < 0.5 && total_incorrect >= 2" --order-by "accuracy, key"
  vocquiz list --filter "next_review <= date('2025-06-01') && reviewed == true"

可用字段: key, translation, accuracy, correct_streak, total_incorrect, next_review, reviewed。
可排序字段: position, key, accuracy, next_review, last_reviewed, correct_streak, total_correct, total_incorrect。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		filter, _ := cmd.Flags().GetString("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		page, _ := cmd.Flags().GetInt32("page")
		pageSize, _ := cmd.Flags().GetInt32("page-size")
		statsOnly, _ := cmd.Flags().GetBool("stats")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		if statsOnly {
			stats, err := container.Vocabulary.Stats(ctx)
			if err != nil {
				return fmt.Errorf("统计失败: %w", err)
			}
			cmd.Printf("例句 %d, 今日待复习 %d, 难词 %d, 已复习 %d, 词义 %d\n",
				stats.Total, stats.Due, stats.Difficult, stats.Reviewed, stats.Meanings)
			return nil
		}

		query := &repository.ListVocabularyQuery{
			Pagination:  repository.Pagination{PageNo: page, PageSize: pageSize},
			FilterOrder: repository.FilterOrder{Filter: filter, OrderBy: orderBy},
		}
		items, total, err := container.Vocabulary.ListVocabulary(ctx, query)
		if err != nil {
			return fmt.Errorf("查询失败: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SENTENCE\tTRANSLATION\tSTREAK\tCORRECT\tINCORRECT\tACCURACY\tLAST\tNEXT")
		for _, item := range items {
			m := item.Mastery
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.0f%%\t%s\t%s\n",
				item.Key, item.TranslatedSentence,
				m.CorrectStreak, m.TotalCorrect, m.TotalIncorrect, m.Accuracy()*100,
				entity.FormatDate(m.LastReviewed), entity.FormatDate(m.NextReview))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		cmd.Printf("共 %d 条，显示 %d 条\n", total, len(items))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("filter", "", "CEL 过滤表达式")
	listCmd.Flags().String("order-by", "", "排序，例如 \"accuracy desc, key\"")
	listCmd.Flags().Int32("page", 1, "页码")
	listCmd.Flags().Int32("page-size", 0, "每页条数 (0 表示全部)")
	listCmd.Flags().Bool("stats", false, "仅输出统计信息")
}
