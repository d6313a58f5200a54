package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/usecase"
)

type stubQuiz struct {
	usecase.QuizUsecase
	startErr error
}

func (q *stubQuiz) Start(ctx context.Context, sessionID string, req usecase.StartRequest) (*entity.QuizSessionState, error) {
	if q.startErr != nil {
		return nil, q.startErr
	}
	return &entity.QuizSessionState{ID: sessionID, Mode: req.Mode, Type: req.Type, OrderedKeys: []string{"a", "b"}}, nil
}

func Test_parseChoice(t *testing.T) {
	cases := []struct {
		in   string
		idx  int
		ok   bool
		quit bool
	}{
		{"1", 0, true, false},
		{" 3 ", 2, true, false},
		{"4", 0, false, false},
		{"0", 0, false, false},
		{"abc", 0, false, false},
		{"Q", 0, false, true},
		{"quit", 0, false, true},
	}
	for _, c := range cases {
		idx, ok, quit := parseChoice(c.in, 3)
		if idx != c.idx || ok != c.ok || quit != c.quit {
			t.Fatalf("%q -> got (%d,%v,%v) want (%d,%v,%v)", c.in, idx, ok, quit, c.idx, c.ok, c.quit)
		}
	}
}

func Test_readChoice_retriesUntilValid(t *testing.T) {
	in := bufio.NewScanner(strings.NewReader("9\nx\n2\n"))
	var out bytes.Buffer
	idx, err := readChoice(in, &out, 3)
	if err != nil || idx != 1 {
		t.Fatalf("readChoice = %d, %v", idx, err)
	}
	if strings.Count(out.String(), "请输入") != 2 {
		t.Fatalf("expected two retry prompts, got %q", out.String())
	}

	_, err = readChoice(bufio.NewScanner(strings.NewReader("")), &out, 3)
	if !errors.Is(err, errQuit) {
		t.Fatalf("end of input should quit, got %v", err)
	}
}

func Test_printSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, &entity.Summary{Total: 3, Correct: 2, Accuracy: 66.67, MissedKeys: []string{"I __run__."}})
	text := out.String()
	if !strings.Contains(text, "2/3") || !strings.Contains(text, "66.67%") || !strings.Contains(text, "I __run__.") {
		t.Fatalf("unexpected summary %q", text)
	}
}

func Test_underline(t *testing.T) {
	if got := underline.Replace("I <u>run</u>."); got != "I \x1b[4mrun\x1b[0m." {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func Test_startQuiz_outcomes(t *testing.T) {
	ctx := context.Background()
	req := usecase.StartRequest{Mode: entity.QuizModeIncorrectReview, Type: entity.QuizTypeSourceToTarget}

	var out bytes.Buffer
	started, err := startQuiz(ctx, &stubQuiz{startErr: entity.ErrNothingToReview}, &out, "s", req)
	if err != nil || started {
		t.Fatalf("nothing to review should be informational, got started=%v err=%v", started, err)
	}
	if !strings.Contains(out.String(), "没有需要复习的错题") {
		t.Fatalf("expected notice, got %q", out.String())
	}

	started, err = startQuiz(ctx, &stubQuiz{startErr: entity.ErrEmptyCatalog}, &out, "s", req)
	if !errors.Is(err, entity.ErrEmptyCatalog) || started {
		t.Fatalf("expected ErrEmptyCatalog, got started=%v err=%v", started, err)
	}

	out.Reset()
	started, err = startQuiz(ctx, &stubQuiz{}, &out, "s", req)
	if err != nil || !started {
		t.Fatalf("start = %v, %v", started, err)
	}
	if !strings.Contains(out.String(), "共 2 题") {
		t.Fatalf("unexpected start banner %q", out.String())
	}
}
