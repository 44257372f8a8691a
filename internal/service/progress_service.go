package service

import (
	"context"
	"errors"
	"log/slog"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
)

// ProgressService records what a participant watched and which footnotes
// they opened.
type ProgressService interface {
	RecordVideoProgress(ctx context.Context, userID uint, body Payload) (*model.VideoProgress, error)
	RecordFootnoteInteraction(ctx context.Context, userID uint, body Payload) (*model.FootnoteInteraction, error)
}

type progressService struct {
	trackingRepo repository.TrackingRepository
	exec         *db.QueryExecutor
}

func NewProgressService(trackingRepo repository.TrackingRepository, exec *db.QueryExecutor) ProgressService {
	return &progressService{trackingRepo: trackingRepo, exec: exec}
}

// RecordVideoProgress upserts the (user, video) row: the latest submission wins.
func (s *progressService) RecordVideoProgress(ctx context.Context, userID uint, body Payload) (*model.VideoProgress, error) {
	verr := &ValidationError{}
	videoID := body.PK("video", true, verr)
	watched := body.Float("watched_seconds", verr)
	completed := body.Bool("completed", verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, &model.Video{}, "video", *videoID); err != nil {
		return nil, err
	}

	progress := &model.VideoProgress{UserID: userID, VideoID: *videoID}
	if watched != nil {
		progress.WatchedSeconds = *watched
	}
	if completed != nil {
		progress.Completed = *completed
	}
	stored, err := s.trackingRepo.UpsertProgress(ctx, progress)
	if errors.Is(err, repository.ErrInvalidReference) {
		return nil, NewValidationError("video", InvalidPK(*videoID))
	}
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "video progress recorded",
		"user_id", userID, "video_id", stored.VideoID, "watched_seconds", stored.WatchedSeconds, "completed", stored.Completed)
	return stored, nil
}

// RecordFootnoteInteraction stores the first interaction of a user with a
// footnote; repeats return that first row unchanged.
func (s *progressService) RecordFootnoteInteraction(ctx context.Context, userID uint, body Payload) (*model.FootnoteInteraction, error) {
	verr := &ValidationError{}
	footnoteID := body.PK("footnote", true, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, &model.Footnote{}, "footnote", *footnoteID); err != nil {
		return nil, err
	}

	interaction, created, err := s.trackingRepo.GetOrCreateInteraction(ctx, userID, *footnoteID)
	if errors.Is(err, repository.ErrInvalidReference) {
		return nil, NewValidationError("footnote", InvalidPK(*footnoteID))
	}
	if err != nil {
		return nil, err
	}
	if created {
		slog.DebugContext(ctx, "footnote interaction recorded", "user_id", userID, "footnote_id", *footnoteID)
	}
	return interaction, nil
}

func (s *progressService) mustExist(ctx context.Context, m interface{}, field string, id uint) error {
	ok, err := s.exec.Exists(ctx, m, id)
	if err != nil {
		return err
	}
	if !ok {
		return NewValidationError(field, InvalidPK(id))
	}
	return nil
}
