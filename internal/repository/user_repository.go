package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exppro-backend/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)
	UpdateFlags(ctx context.Context, id uint, flags map[string]interface{}) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	GetOrCreateGroup(ctx context.Context, name string) (*model.Group, error)
	AddToGroup(ctx context.Context, user *model.User, group *model.Group) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) error {
	return wrap("create user", r.db.WithContext(ctx).Omit("Groups").Create(user).Error)
}

func (r *userRepository) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Groups", groupsByID).First(&user, id).Error
	if err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Groups", groupsByID).
		Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, wrap("get user by username", err)
	}
	return &user, nil
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, wrap("check username", err)
}

func (r *userRepository) GetAllUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Preload("Groups", groupsByID).Order(orderBy("id", false)).Find(&users).Error
	return users, wrap("list users", err)
}

func (r *userRepository) UpdateFlags(ctx context.Context, id uint, flags map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(flags)
	if res.Error != nil {
		return wrap("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return wrap("touch last login", r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).Update("last_login", at).Error)
}

// GetOrCreateGroup returns the group with the given name, creating it if needed.
// A concurrent creator losing the unique race re-reads the winner's row.
func (r *userRepository) GetOrCreateGroup(ctx context.Context, name string) (*model.Group, error) {
	group := model.Group{Name: name}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, wrap("create group", err)
	}
	var existing model.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, wrap("get group", err)
	}
	return &existing, nil
}

func (r *userRepository) AddToGroup(ctx context.Context, user *model.User, group *model.Group) error {
	err := r.db.WithContext(ctx).Model(user).Association("Groups").Append(group)
	return wrap("add user to group", err)
}
