package repository

import (
	"context"

	"gorm.io/gorm"

	"exppro-backend/internal/model"
)

type VideoRepository interface {
	// GetVideos returns all videos sorted by presentation order, with footnotes.
	GetVideos(ctx context.Context, descending bool) ([]model.Video, error)
	GetVideosByExperiment(ctx context.Context, experimentID uint) ([]model.Video, error)
	GetVideoByID(ctx context.Context, id uint) (*model.Video, error)
	CreateVideo(ctx context.Context, video *model.Video) error
	UpdateVideo(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteVideo(ctx context.Context, id uint) error

	GetFootnoteByID(ctx context.Context, id uint) (*model.Footnote, error)
	CreateFootnote(ctx context.Context, footnote *model.Footnote) error
	UpdateFootnote(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteFootnote(ctx context.Context, id uint) error
}

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) GetVideos(ctx context.Context, descending bool) ([]model.Video, error) {
	var videos []model.Video
	err := r.db.WithContext(ctx).
		Preload("Footnotes", footnotesByTimestamp).
		Order(orderBy("order", descending)).
		Order(orderBy("id", descending)).
		Find(&videos).Error
	return videos, wrap("list videos", err)
}

func (r *videoRepository) GetVideosByExperiment(ctx context.Context, experimentID uint) ([]model.Video, error) {
	var videos []model.Video
	err := r.db.WithContext(ctx).
		Preload("Footnotes", footnotesByTimestamp).
		Where("experiment_id = ?", experimentID).
		Order(orderBy("order", false)).
		Order(orderBy("id", false)).
		Find(&videos).Error
	return videos, wrap("list experiment videos", err)
}

func (r *videoRepository) GetVideoByID(ctx context.Context, id uint) (*model.Video, error) {
	var video model.Video
	if err := r.db.WithContext(ctx).Preload("Footnotes", footnotesByTimestamp).First(&video, id).Error; err != nil {
		return nil, wrap("get video", err)
	}
	return &video, nil
}

func (r *videoRepository) CreateVideo(ctx context.Context, video *model.Video) error {
	return wrap("create video", r.db.WithContext(ctx).Omit(clauseAssociations).Create(video).Error)
}

func (r *videoRepository) UpdateVideo(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateByID(ctx, r.db, &model.Video{}, id, fields, "update video")
}

func (r *videoRepository) DeleteVideo(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Video{}, id, "delete video")
}

func (r *videoRepository) GetFootnoteByID(ctx context.Context, id uint) (*model.Footnote, error) {
	var footnote model.Footnote
	if err := r.db.WithContext(ctx).First(&footnote, id).Error; err != nil {
		return nil, wrap("get footnote", err)
	}
	return &footnote, nil
}

func (r *videoRepository) CreateFootnote(ctx context.Context, footnote *model.Footnote) error {
	return wrap("create footnote", r.db.WithContext(ctx).Create(footnote).Error)
}

func (r *videoRepository) UpdateFootnote(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateByID(ctx, r.db, &model.Footnote{}, id, fields, "update footnote")
}

func (r *videoRepository) DeleteFootnote(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Footnote{}, id, "delete footnote")
}
