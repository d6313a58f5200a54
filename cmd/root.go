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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vocquiz",
	Short: "例句词汇测验与间隔复习",
	Long: `vocquiz 从例句库和词义库中出题，记录每个条目的掌握情况，
并按间隔复习计划安排下一次复习日期。

存储后端 (csv / sqlite3 / sqlite / postgres / pgx) 与会话后端 (memory / redis)
通过 config.yaml、.env 或环境变量配置，例如 STORAGE_DRIVER=sqlite。`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "CSV 数据目录 (默认 data)")
	rootCmd.PersistentFlags().String("driver", "", "存储驱动: csv, sqlite3, sqlite, postgres, pgx")
	rootCmd.PersistentFlags().String("session-backend", "", "会话后端: memory, redis")
	rootCmd.PersistentFlags().String("log-level", "", "日志级别")

	bindFlagToViper("storage.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	bindFlagToViper("storage.driver", rootCmd.PersistentFlags().Lookup("driver"))
	bindFlagToViper("session.backend", rootCmd.PersistentFlags().Lookup("session-backend"))
	bindFlagToViper("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}
