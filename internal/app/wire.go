//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocquiz/internal/infrastructure/config"
	"github.com/eslsoft/vocquiz/internal/infrastructure/logger"
	"github.com/eslsoft/vocquiz/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var loggerSet = wire.NewSet(
	logger.NewLogger,
	wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
)

var repositorySet = wire.NewSet(
	ProvideStores,
	ProvideSessionStore,
)

var usecaseSet = wire.NewSet(
	usecase.NewWordCatalog,
	usecase.NewQuizUsecase,
	usecase.NewVocabularyUsecase,
	ProvideBackupService,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		loggerSet,
		repositorySet,
		usecaseSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}

// InitializeWithConfig builds the container from an already loaded config.
func InitializeWithConfig(cfg *config.Config) (*Container, func(), error) {
	wire.Build(
		loggerSet,
		repositorySet,
		usecaseSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}
