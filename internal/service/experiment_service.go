package service

import (
	"context"

	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
)

type ExperimentService interface {
	GetExperiments(ctx context.Context) ([]model.Experiment, error)
	GetExperiment(ctx context.Context, id uint) (*model.Experiment, error)
}

type experimentService struct {
	experimentRepo repository.ExperimentRepository
}

func NewExperimentService(experimentRepo repository.ExperimentRepository) ExperimentService {
	return &experimentService{experimentRepo: experimentRepo}
}

func (s *experimentService) GetExperiments(ctx context.Context) ([]model.Experiment, error) {
	return s.experimentRepo.GetExperiments(ctx)
}

func (s *experimentService) GetExperiment(ctx context.Context, id uint) (*model.Experiment, error) {
	return s.experimentRepo.GetExperimentByID(ctx, id)
}
