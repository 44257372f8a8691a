package service

import (
	"context"
	"strconv"

	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
)

type QuestionnaireService interface {
	// GetQuestionnaires lists questionnaires, optionally narrowed to the video
	// named by videoID. An empty videoID means no filter; a value that cannot
	// name a video yields an empty list.
	GetQuestionnaires(ctx context.Context, videoID string) ([]model.Questionnaire, error)
	GetQuestionnaire(ctx context.Context, id uint) (*model.Questionnaire, error)
}

type questionnaireService struct {
	questionnaireRepo repository.QuestionnaireRepository
}

func NewQuestionnaireService(questionnaireRepo repository.QuestionnaireRepository) QuestionnaireService {
	return &questionnaireService{questionnaireRepo: questionnaireRepo}
}

func (s *questionnaireService) GetQuestionnaires(ctx context.Context, videoID string) ([]model.Questionnaire, error) {
	var filter repository.QuestionnaireFilter
	if videoID != "" {
		id, err := strconv.ParseUint(videoID, 10, 64)
		if err != nil {
			return []model.Questionnaire{}, nil
		}
		vid := uint(id)
		filter.VideoID = &vid
	}
	return s.questionnaireRepo.GetQuestionnaires(ctx, filter)
}

func (s *questionnaireService) GetQuestionnaire(ctx context.Context, id uint) (*model.Questionnaire, error) {
	return s.questionnaireRepo.GetQuestionnaireByID(ctx, id)
}
