package main

import (
	"fmt"

	"gorm.io/gorm"

	"exppro-backend/cmd/app/internal/controller"
	"exppro-backend/internal/config"
	"exppro-backend/internal/db"
	"exppro-backend/internal/repository"
	"exppro-backend/internal/service"
	"exppro-backend/internal/storage"
	"exppro-backend/utilities"
)

// app holds the wired repositories and services of one process.
type app struct {
	cfg   *config.APIConfig
	db    *gorm.DB
	media storage.MediaStore

	auth service.AuthService
	svc  controller.Services
}

func newApp(cfg *config.APIConfig, gdb *gorm.DB) (*app, error) {
	media, err := storage.NewLocalMediaStore(cfg.Media.Root)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}

	// Create repositories.
	userRepo := repository.NewUserRepository(gdb)
	tokenRepo := repository.NewTokenRepository(gdb)
	experimentRepo := repository.NewExperimentRepository(gdb)
	videoRepo := repository.NewVideoRepository(gdb)
	questionnaireRepo := repository.NewQuestionnaireRepository(gdb)
	trackingRepo := repository.NewTrackingRepository(gdb)
	answerRepo := repository.NewAnswerRepository(gdb)
	exec := db.NewQueryExecutor(gdb)

	// Create services.
	authService := service.NewAuthService(userRepo, tokenRepo,
		utilities.NewTokenSigner(cfg.Authentication.TokenSecret), cfg.Authentication.BcryptCost)
	svc := controller.Services{
		Auth:           authService,
		Experiments:    service.NewExperimentService(experimentRepo),
		Videos:         service.NewVideoService(videoRepo),
		Questionnaires: service.NewQuestionnaireService(questionnaireRepo),
		Progress:       service.NewProgressService(trackingRepo, exec),
		Answers:        service.NewAnswerService(answerRepo, exec, cfg.Answers.Atomic),
		Stats:          service.NewStatsService(trackingRepo),
		Admin: service.NewAdminService(service.AdminRepositories{
			Experiments:    experimentRepo,
			Videos:         videoRepo,
			Questionnaires: questionnaireRepo,
			Tracking:       trackingRepo,
			Answers:        answerRepo,
			Users:          userRepo,
		}, media, exec),
	}

	return &app{
		cfg:   cfg,
		db:    gdb,
		media: media,
		auth:  authService,
		svc:   svc,
	}, nil
}

func (a *app) services() controller.Services {
	return a.svc
}
