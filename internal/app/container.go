package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocquiz/internal/infrastructure/config"
	"github.com/eslsoft/vocquiz/internal/repository"
	"github.com/eslsoft/vocquiz/internal/usecase"
	"github.com/eslsoft/vocquiz/internal/usecase/backup"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Stores     repository.Stores
	Sessions   repository.SessionStore
	Catalog    usecase.WordCatalog
	Quiz       usecase.QuizUsecase
	Vocabulary usecase.VocabularyUsecase
	Backup     *backup.Service
}
