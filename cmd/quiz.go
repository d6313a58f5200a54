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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eslsoft/vocquiz/internal/app"
	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/usecase"
)

var errQuit = errors.New("quit")

var underline = strings.NewReplacer("<u>", "\x1b[4m", "</u>", "\x1b[0m")

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "在终端中进行选择题测验",
	Long: `按模式 (random, review, difficult, incorrect_review) 与题型
(source_to_target, target_to_source, fill_source, fill_target, word_to_meaning, meaning_to_word)
开始一次测验。输入选项编号作答，输入 q 退出 (会话保留，可用 --resume 继续)。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		modeRaw, _ := cmd.Flags().GetString("mode")
		typeRaw, _ := cmd.Flags().GetString("type")
		seed, _ := cmd.Flags().GetInt64("seed")
		sessionID, _ := cmd.Flags().GetString("session")
		resume, _ := cmd.Flags().GetBool("resume")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		if sessionID == "" {
			if resume {
				return fmt.Errorf("继续测验需要通过 --session 指定会话 ID")
			}
			sessionID = uuid.NewString()
		}

		in := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		if !resume {
			mode, err := entity.ParseQuizMode(modeRaw)
			if err != nil {
				return err
			}
			quizType, err := entity.ParseQuizType(typeRaw)
			if err != nil {
				return err
			}
			started, err := startQuiz(ctx, container.Quiz, out, sessionID, usecase.StartRequest{Mode: mode, Type: quizType, Seed: seed})
			if err != nil || !started {
				return err
			}
		}

		for {
			summary, err := runQuiz(ctx, container.Quiz, sessionID, in, out)
			if errors.Is(err, errQuit) {
				fmt.Fprintf(out, "\n已暂停。继续: vocquiz quiz --resume --session %s\n", sessionID)
				return nil
			}
			if err != nil {
				return err
			}
			printSummary(out, summary)

			if len(summary.MissedKeys) == 0 {
				return nil
			}
			if !confirm(in, out, "复习答错的题目? [y/N] ") {
				return nil
			}
			req := usecase.StartRequest{Mode: entity.QuizModeIncorrectReview, Type: summary.Type, Seed: seed}
			started, err := startQuiz(ctx, container.Quiz, out, sessionID, req)
			if err != nil || !started {
				return err
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().String("mode", string(entity.QuizModeRandom), "测验模式")
	quizCmd.Flags().String("type", string(entity.QuizTypeSourceToTarget), "题型")
	quizCmd.Flags().Int64("seed", 0, "随机种子 (0 表示按时间生成)")
	quizCmd.Flags().String("session", "", "会话 ID (默认自动生成)")
	quizCmd.Flags().Bool("resume", false, "继续已有会话")
}

// startQuiz starts a session and reports whether there is anything to ask.
func startQuiz(ctx context.Context, quiz usecase.QuizUsecase, out io.Writer, sessionID string, req usecase.StartRequest) (bool, error) {
	state, err := quiz.Start(ctx, sessionID, req)
	switch {
	case errors.Is(err, entity.ErrEmptyCatalog):
		return false, fmt.Errorf("词库为空，请先使用 vocquiz import 导入: %w", err)
	case errors.Is(err, entity.ErrNothingToReview):
		fmt.Fprintln(out, "没有需要复习的错题。")
		return false, nil
	case errors.Is(err, entity.ErrNoEligibleItems):
		return false, fmt.Errorf("当前模式下没有可出题的条目: %w", err)
	case err != nil:
		return false, fmt.Errorf("开始测验失败: %w", err)
	}
	fmt.Fprintf(out, "会话 %s: %s / %s, 共 %d 题\n", state.ID, state.Mode, state.Type, state.Total())
	return true, nil
}

// runQuiz asks every remaining question of the session and returns its summary.
func runQuiz(ctx context.Context, quiz usecase.QuizUsecase, sessionID string, in *bufio.Scanner, out io.Writer) (*entity.Summary, error) {
	for {
		next, err := quiz.Next(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("获取题目失败: %w", err)
		}
		if next.Done() {
			return next.Summary, nil
		}

		q := next.Question
		fmt.Fprintf(out, "\n[%d/%d] %s\n", q.Position+1, q.Total, underline.Replace(q.Text))
		for i, choice := range q.Choices {
			fmt.Fprintf(out, "  %d) %s\n", i+1, choice)
		}

		chosen, err := readChoice(in, out, len(q.Choices))
		if err != nil {
			return nil, err
		}
		result, err := quiz.Submit(ctx, sessionID, usecase.Answer{
			ItemKey:       q.ItemKey,
			Chosen:        q.Choices[chosen],
			CorrectAnswer: q.CorrectAnswer,
		})
		if err != nil {
			return nil, fmt.Errorf("提交答案失败: %w", err)
		}
		if result.Correct {
			fmt.Fprintln(out, "✔ 正确")
		} else {
			fmt.Fprintf(out, "✘ 错误，正确答案: %s\n", result.CorrectAnswer)
		}
		if result.Mastery != nil {
			fmt.Fprintf(out, "  连续答对 %d 次，下次复习 %s\n", result.Mastery.CorrectStreak, entity.FormatDate(result.Mastery.NextReview))
		}
	}
}

// readChoice returns the zero-based index of the chosen option.
func readChoice(in *bufio.Scanner, out io.Writer, n int) (int, error) {
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return 0, fmt.Errorf("读取输入失败: %w", err)
			}
			return 0, errQuit
		}
		idx, ok, quit := parseChoice(in.Text(), n)
		if quit {
			return 0, errQuit
		}
		if ok {
			return idx, nil
		}
		fmt.Fprintf(out, "请输入 1-%d 之间的编号，或 q 退出\n", n)
	}
}

func parseChoice(raw string, n int) (idx int, ok bool, quit bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "q") || strings.EqualFold(raw, "quit") {
		return 0, false, true
	}
	num, err := strconv.Atoi(raw)
	if err != nil || num < 1 || num > n {
		return 0, false, false
	}
	return num - 1, true, false
}

func confirm(in *bufio.Scanner, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	if !in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(in.Text()))
	return answer == "y" || answer == "yes"
}

func printSummary(out io.Writer, summary *entity.Summary) {
	fmt.Fprintf(out, "\n测验完成: %d/%d 正确 (%.2f%%)\n", summary.Correct, summary.Total, summary.Accuracy)
	if len(summary.MissedKeys) > 0 {
		fmt.Fprintln(out, "答错的题目:")
		for _, key := range summary.MissedKeys {
			fmt.Fprintf(out, "  - %s\n", key)
		}
	}
}
