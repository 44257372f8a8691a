package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
)

type AnswerService interface {
	// SubmitAnswers creates one answer per item, in order, for userID.
	//
	// The first invalid item stops the batch and is reported as a
	// *ValidationError. In the default mode answers created for earlier items
	// stay committed and later items are never looked at. With atomic mode
	// enabled the batch runs in one transaction and nothing is kept.
	// On success the created answers are returned in item order.
	SubmitAnswers(ctx context.Context, userID uint, items []json.RawMessage) ([]model.Answer, error)
}

type answerService struct {
	answerRepo repository.AnswerRepository
	exec       *db.QueryExecutor
	atomic     bool
}

func NewAnswerService(answerRepo repository.AnswerRepository, exec *db.QueryExecutor, atomic bool) AnswerService {
	return &answerService{answerRepo: answerRepo, exec: exec, atomic: atomic}
}

// DecodeAnswerItems extracts the "answers" list from a submission body. A
// missing list is an empty batch.
func DecodeAnswerItems(body Payload) ([]json.RawMessage, error) {
	raw, ok := body.present("answers")
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, NewValidationError("answers", MsgNotAList)
	}
	return items, nil
}

func (s *answerService) SubmitAnswers(ctx context.Context, userID uint, items []json.RawMessage) ([]model.Answer, error) {
	if !s.atomic {
		return s.submit(ctx, s.answerRepo, s.exec, userID, items)
	}

	var created []model.Answer
	err := s.exec.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		created, err = s.submit(ctx, s.answerRepo.WithTx(tx), db.NewQueryExecutor(tx), userID, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *answerService) submit(ctx context.Context, repo repository.AnswerRepository, exec *db.QueryExecutor, userID uint, items []json.RawMessage) ([]model.Answer, error) {
	created := make([]model.Answer, 0, len(items))
	for i, raw := range items {
		answer, err := s.createOne(ctx, repo, exec, userID, raw)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				slog.InfoContext(ctx, "answer batch stopped at invalid item",
					"user_id", userID, "item", i, "created_before", len(created), "atomic", s.atomic)
			}
			return nil, err
		}
		created = append(created, *answer)
	}
	return created, nil
}

func (s *answerService) createOne(ctx context.Context, repo repository.AnswerRepository, exec *db.QueryExecutor, userID uint, raw json.RawMessage) (*model.Answer, error) {
	item, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	questionID := item.PK("question", true, verr)
	text := item.String("answer_text", verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := exec.Exists(ctx, &model.Question{}, *questionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NewValidationError("question", InvalidPK(*questionID))
	}
	dup, err := repo.AnswerExists(ctx, userID, *questionID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, NewValidationError("non_field_errors", MsgNotUnique)
	}

	answer := &model.Answer{
		UserID:        userID,
		QuestionID:    *questionID,
		AnswerText:    text,
		AnswerOptions: item.JSON("answer_options"),
	}
	err = repo.CreateAnswer(ctx, answer)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, NewValidationError("non_field_errors", MsgNotUnique)
	case errors.Is(err, repository.ErrInvalidReference):
		return nil, NewValidationError("question", InvalidPK(*questionID))
	case err != nil:
		return nil, err
	}
	return answer, nil
}
