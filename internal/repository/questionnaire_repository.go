package repository

import (
	"context"

	"gorm.io/gorm"

	"exppro-backend/internal/db/query"
	"exppro-backend/internal/model"
)

// QuestionnaireFilter narrows questionnaire listings. Nil fields match everything.
type QuestionnaireFilter struct {
	ExperimentID *uint
	VideoID      *uint
}

type QuestionnaireRepository interface {
	GetQuestionnaires(ctx context.Context, filter QuestionnaireFilter) ([]model.Questionnaire, error)
	GetQuestionnaireByID(ctx context.Context, id uint) (*model.Questionnaire, error)
	CreateQuestionnaire(ctx context.Context, questionnaire *model.Questionnaire) error
	UpdateQuestionnaire(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteQuestionnaire(ctx context.Context, id uint) error

	GetQuestionByID(ctx context.Context, id uint) (*model.Question, error)
	CreateQuestion(ctx context.Context, question *model.Question) error
	UpdateQuestion(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteQuestion(ctx context.Context, id uint) error
}

type questionnaireRepository struct {
	db *gorm.DB
}

func NewQuestionnaireRepository(db *gorm.DB) QuestionnaireRepository {
	return &questionnaireRepository{db: db}
}

func (r *questionnaireRepository) GetQuestionnaires(ctx context.Context, filter QuestionnaireFilter) ([]model.Questionnaire, error) {
	q := query.NewFilterPredicate().
		Equal("experiment_id", filter.ExperimentID).
		Equal("video_id", filter.VideoID).
		Apply(r.db.WithContext(ctx).Preload("Questions", questionsByOrder))
	var questionnaires []model.Questionnaire
	err := q.Order(orderBy("id", false)).Find(&questionnaires).Error
	return questionnaires, wrap("list questionnaires", err)
}

func (r *questionnaireRepository) GetQuestionnaireByID(ctx context.Context, id uint) (*model.Questionnaire, error) {
	var questionnaire model.Questionnaire
	if err := r.db.WithContext(ctx).Preload("Questions", questionsByOrder).First(&questionnaire, id).Error; err != nil {
		return nil, wrap("get questionnaire", err)
	}
	return &questionnaire, nil
}

func (r *questionnaireRepository) CreateQuestionnaire(ctx context.Context, questionnaire *model.Questionnaire) error {
	return wrap("create questionnaire", r.db.WithContext(ctx).Omit(clauseAssociations).Create(questionnaire).Error)
}

func (r *questionnaireRepository) UpdateQuestionnaire(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateByID(ctx, r.db, &model.Questionnaire{}, id, fields, "update questionnaire")
}

func (r *questionnaireRepository) DeleteQuestionnaire(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Questionnaire{}, id, "delete questionnaire")
}

func (r *questionnaireRepository) GetQuestionByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, wrap("get question", err)
	}
	return &question, nil
}

func (r *questionnaireRepository) CreateQuestion(ctx context.Context, question *model.Question) error {
	return wrap("create question", r.db.WithContext(ctx).Create(question).Error)
}

func (r *questionnaireRepository) UpdateQuestion(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateByID(ctx, r.db, &model.Question{}, id, fields, "update question")
}

func (r *questionnaireRepository) DeleteQuestion(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Question{}, id, "delete question")
}
