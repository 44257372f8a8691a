package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exppro-backend/internal/db/query"
	"exppro-backend/internal/model"
)

type AnswerRepository interface {
	CreateAnswer(ctx context.Context, answer *model.Answer) error
	AnswerExists(ctx context.Context, userID, questionID uint) (bool, error)
	GetAnswers(ctx context.Context, filter TrackingFilter) ([]model.Answer, error)
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) AnswerRepository
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

func (r *answerRepository) CreateAnswer(ctx context.Context, answer *model.Answer) error {
	return wrap("create answer", r.db.WithContext(ctx).Omit(clause.Associations).Create(answer).Error)
}

func (r *answerRepository) AnswerExists(ctx context.Context, userID, questionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Answer{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).Count(&count).Error
	return count > 0, wrap("check answer", err)
}

func (r *answerRepository) GetAnswers(ctx context.Context, filter TrackingFilter) ([]model.Answer, error) {
	q := r.db.WithContext(ctx).Model(&model.Answer{})
	if filter.QuestionnaireID != nil {
		q = q.Joins("JOIN questions ON questions.id = answers.question_id")
	}
	q = query.NewFilterPredicate().
		Equal("answers.user_id", filter.UserID).
		Equal("questions.questionnaire_id", filter.QuestionnaireID).
		Apply(q)
	var answers []model.Answer
	err := q.Order("answers.id ASC").Find(&answers).Error
	return answers, wrap("list answers", err)
}
