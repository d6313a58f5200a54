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

	"github.com/eslsoft/vocquiz/internal/app"
	"github.com/eslsoft/vocquiz/internal/infrastructure/scheduler"
	"github.com/eslsoft/vocquiz/internal/usecase"
)

// watchCmd periodically reports how many items are due for review
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "定期提醒待复习的条目",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		notifier := scheduler.NotifierFunc(func(_ context.Context, stats *usecase.CatalogStats) error {
			cmd.Printf("待复习 %d / %d (难词 %d)\n", stats.Due, stats.Total, stats.Difficult)
			return nil
		})
		s := scheduler.New(container.Vocabulary, notifier, container.Config.Reminder.Interval, container.Logger)

		if once {
			return s.RunOnce(cmd.Context())
		}
		if err := s.Start(); err != nil {
			return err
		}
		defer s.Stop()

		// Graceful shutdown
		<-cmd.Context().Done()
		container.Logger.Info("received shutdown signal")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("once", false, "只检查一次后退出")
	watchCmd.Flags().Duration("interval", 0, "检查间隔 (默认使用 reminder.interval)")
	bindFlagToViper("reminder.interval", watchCmd.Flags().Lookup("interval"))
}
