package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exppro-backend/internal/model"
)

type TokenRepository interface {
	// GetOrCreate stores key for the user unless a token already exists,
	// and returns whichever token is persisted.
	GetOrCreate(ctx context.Context, userID uint, key string) (*model.AuthToken, error)
	GetByKey(ctx context.Context, key string) (*model.AuthToken, error)
	// Replace swaps the user's stored key for key.
	Replace(ctx context.Context, userID uint, key string) (*model.AuthToken, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) GetOrCreate(ctx context.Context, userID uint, key string) (*model.AuthToken, error) {
	token := model.AuthToken{UserID: userID, Key: key}
	err := r.db.WithContext(ctx).Omit("User").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&token).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, wrap("create token", err)
	}
	var stored model.AuthToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, wrap("get token", err)
	}
	return &stored, nil
}

func (r *tokenRepository) GetByKey(ctx context.Context, key string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Groups", groupsByID).
		Where(map[string]interface{}{"key": key}).First(&token).Error
	if err != nil {
		return nil, wrap("get token by key", err)
	}
	return &token, nil
}

func (r *tokenRepository) Replace(ctx context.Context, userID uint, key string) (*model.AuthToken, error) {
	token := model.AuthToken{UserID: userID, Key: key, CreatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"key", "created_at"}),
		}).
		Create(&token).Error
	if err != nil {
		return nil, wrap("replace token", err)
	}
	var stored model.AuthToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, wrap("get token", err)
	}
	return &stored, nil
}
