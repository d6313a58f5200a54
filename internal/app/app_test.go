package app

import (
	"context"
	"testing"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/infrastructure/config"
	"github.com/eslsoft/vocquiz/internal/usecase"
)

func TestInitializeWithCSVStorage(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverCSV, DataDir: t.TempDir()},
		Log:     config.LogConfig{Level: "error"},
	}
	container, cleanup, err := InitializeWithConfig(cfg)
	if err != nil {
		t.Fatalf("InitializeWithConfig returned error: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	n, err := container.Catalog.ReplaceVocabulary(ctx, []entity.SentencePair{
		{Source: "I __run__.", Target: "私は__走る__。"},
		{Source: "You __eat__.", Target: "あなたは__食べる__。"},
	})
	if err != nil || n != 2 {
		t.Fatalf("ReplaceVocabulary = %d, %v", n, err)
	}

	if _, err := container.Quiz.Start(ctx, "s1", usecase.StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget, Seed: 7}); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	next, err := container.Quiz.Next(ctx, "s1")
	if err != nil || next.Question == nil || len(next.Question.Choices) != 2 {
		t.Fatalf("unexpected first question %+v, %v", next, err)
	}
}

func TestInitializeWithSQLiteStorage(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverSQLite, DataDir: t.TempDir()},
		Session: config.SessionConfig{Backend: config.SessionMemory},
		Log:     config.LogConfig{Level: "error"},
	}
	container, cleanup, err := InitializeWithConfig(cfg)
	if err != nil {
		t.Fatalf("InitializeWithConfig returned error: %v", err)
	}
	defer cleanup()

	stats, err := container.Vocabulary.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("fresh database should be empty, got %+v", stats)
	}
}
