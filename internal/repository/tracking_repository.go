package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exppro-backend/internal/db/query"
	"exppro-backend/internal/model"
)

// TrackingFilter narrows operator listings of participant activity.
type TrackingFilter struct {
	UserID          *uint
	VideoID         *uint
	QuestionnaireID *uint
	Completed       *bool
}

type TrackingRepository interface {
	UpsertProgress(ctx context.Context, progress *model.VideoProgress) (*model.VideoProgress, error)
	GetOrCreateInteraction(ctx context.Context, userID, footnoteID uint) (*model.FootnoteInteraction, bool, error)
	GetFootnoteStats(ctx context.Context) ([]model.FootnoteStat, error)
	GetProgress(ctx context.Context, filter TrackingFilter) ([]model.VideoProgress, error)
	GetInteractions(ctx context.Context, filter TrackingFilter) ([]model.FootnoteInteraction, error)
}

type trackingRepository struct {
	db *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

// UpsertProgress inserts the row or overwrites watched_seconds and completed
// on the existing (user, video) row.
func (r *trackingRepository) UpsertProgress(ctx context.Context, progress *model.VideoProgress) (*model.VideoProgress, error) {
	db := r.db.WithContext(ctx)
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"watched_seconds", "completed"}),
	}).Create(progress).Error
	if err != nil {
		return nil, wrap("upsert video progress", err)
	}
	var stored model.VideoProgress
	err = db.Where("user_id = ? AND video_id = ?", progress.UserID, progress.VideoID).First(&stored).Error
	if err != nil {
		return nil, wrap("get video progress", err)
	}
	return &stored, nil
}

// GetOrCreateInteraction returns the existing (user, footnote) row untouched,
// or records a new one. The bool reports whether a row was created.
func (r *trackingRepository) GetOrCreateInteraction(ctx context.Context, userID, footnoteID uint) (*model.FootnoteInteraction, bool, error) {
	db := r.db.WithContext(ctx)
	find := func() (*model.FootnoteInteraction, error) {
		var existing model.FootnoteInteraction
		err := db.Where("user_id = ? AND footnote_id = ?", userID, footnoteID).First(&existing).Error
		if err != nil {
			return nil, err
		}
		return &existing, nil
	}

	existing, err := find()
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, wrap("get footnote interaction", err)
	}

	interaction := model.FootnoteInteraction{UserID: userID, FootnoteID: footnoteID}
	err = db.Omit(clause.Associations).Create(&interaction).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, err = find()
		if err != nil {
			return nil, false, wrap("get footnote interaction", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, wrap("create footnote interaction", err)
	}
	return &interaction, true, nil
}

// GetFootnoteStats counts distinct interacting users per footnote. Footnotes
// nobody interacted with do not appear.
func (r *trackingRepository) GetFootnoteStats(ctx context.Context) ([]model.FootnoteStat, error) {
	var stats []model.FootnoteStat
	err := r.db.WithContext(ctx).
		Table("footnote_interactions AS fi").
		Select("f.id AS footnote_id, v.title AS video_title, f.timestamp AS timestamp, " +
			"f.text AS text, COUNT(DISTINCT fi.user_id) AS interaction_count").
		Joins("JOIN footnotes f ON f.id = fi.footnote_id").
		Joins("JOIN videos v ON v.id = f.video_id").
		Group("f.id, v.title, f.timestamp, f.text").
		Order("f.id ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, wrap("footnote stats", err)
	}
	return stats, nil
}

func (r *trackingRepository) GetProgress(ctx context.Context, filter TrackingFilter) ([]model.VideoProgress, error) {
	q := query.NewFilterPredicate().
		Equal("user_id", filter.UserID).
		Equal("video_id", filter.VideoID).
		Equal("completed", filter.Completed).
		Apply(r.db.WithContext(ctx).Model(&model.VideoProgress{}))
	var rows []model.VideoProgress
	err := q.Order(orderBy("id", false)).Find(&rows).Error
	return rows, wrap("list video progress", err)
}

func (r *trackingRepository) GetInteractions(ctx context.Context, filter TrackingFilter) ([]model.FootnoteInteraction, error) {
	q := r.db.WithContext(ctx).Model(&model.FootnoteInteraction{})
	if filter.VideoID != nil {
		q = q.Joins("JOIN footnotes ON footnotes.id = footnote_interactions.footnote_id")
	}
	q = query.NewFilterPredicate().
		Equal("footnote_interactions.user_id", filter.UserID).
		Equal("footnotes.video_id", filter.VideoID).
		Apply(q)
	var rows []model.FootnoteInteraction
	err := q.Order("footnote_interactions.id ASC").Find(&rows).Error
	return rows, wrap("list footnote interactions", err)
}
