package service

import (
	"context"

	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
)

type VideoService interface {
	// GetVideosForViewer returns every video in the viewer's cohort order.
	GetVideosForViewer(ctx context.Context, viewer *model.User) ([]model.Video, error)
	GetVideo(ctx context.Context, id uint) (*model.Video, error)
}

type videoService struct {
	videoRepo repository.VideoRepository
}

func NewVideoService(videoRepo repository.VideoRepository) VideoService {
	return &videoService{videoRepo: videoRepo}
}

// DescendingFor reports whether viewer sees videos in descending order.
// Only members of the group named exactly "Group1" get ascending order;
// every other group, and no group at all, gets descending order.
func DescendingFor(viewer *model.User) bool {
	if viewer == nil {
		return true
	}
	g := viewer.PrimaryGroup()
	return g == nil || g.Name != model.CohortAscending
}

func (s *videoService) GetVideosForViewer(ctx context.Context, viewer *model.User) ([]model.Video, error) {
	return s.videoRepo.GetVideos(ctx, DescendingFor(viewer))
}

func (s *videoService) GetVideo(ctx context.Context, id uint) (*model.Video, error) {
	return s.videoRepo.GetVideoByID(ctx, id)
}
