package repository

import (
	"context"

	"gorm.io/gorm"

	"exppro-backend/internal/model"
)

type ExperimentRepository interface {
	GetExperiments(ctx context.Context) ([]model.Experiment, error)
	GetExperimentByID(ctx context.Context, id uint) (*model.Experiment, error)
	CreateExperiment(ctx context.Context, experiment *model.Experiment) error
	UpdateExperiment(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteExperiment(ctx context.Context, id uint) error
}

type experimentRepository struct {
	db *gorm.DB
}

func NewExperimentRepository(db *gorm.DB) ExperimentRepository {
	return &experimentRepository{db: db}
}

// withVideos nests videos by (order, id) and their footnotes by (timestamp, id).
func withVideos(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order(orderBy("order", false)).Order(orderBy("id", false))
		}).
		Preload("Videos.Footnotes", footnotesByTimestamp)
}

func (r *experimentRepository) GetExperiments(ctx context.Context) ([]model.Experiment, error) {
	var experiments []model.Experiment
	err := withVideos(r.db.WithContext(ctx)).Order(orderBy("id", false)).Find(&experiments).Error
	return experiments, wrap("list experiments", err)
}

func (r *experimentRepository) GetExperimentByID(ctx context.Context, id uint) (*model.Experiment, error) {
	var experiment model.Experiment
	if err := withVideos(r.db.WithContext(ctx)).First(&experiment, id).Error; err != nil {
		return nil, wrap("get experiment", err)
	}
	return &experiment, nil
}

func (r *experimentRepository) CreateExperiment(ctx context.Context, experiment *model.Experiment) error {
	return wrap("create experiment", r.db.WithContext(ctx).Omit(clauseAssociations).Create(experiment).Error)
}

func (r *experimentRepository) UpdateExperiment(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateByID(ctx, r.db, &model.Experiment{}, id, fields, "update experiment")
}

func (r *experimentRepository) DeleteExperiment(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Experiment{}, id, "delete experiment")
}
