package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gorm.io/datatypes"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
	"exppro-backend/internal/storage"
)

// Inputs use pointers so that updates touch only the fields that were sent.

type ExperimentInput struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description"`
	ConsentText *string `json:"consent_text"`
}

type VideoInput struct {
	Experiment    *uint   `form:"experiment"`
	Title         *string `form:"title" binding:"omitempty,max=200"`
	Order         *int    `form:"order"`
	ClearSubtitle bool    `form:"clear_subtitle"`
}

// Upload is a file received from an operator.
type Upload struct {
	Filename string
	Content  io.Reader
}

type FootnoteInput struct {
	Video        *uint    `json:"video"`
	Text         *string  `json:"text"`
	DetailedText *string  `json:"detailed_text"`
	Timestamp    *float64 `json:"timestamp" binding:"omitempty,gte=0"`
}

type QuestionnaireInput struct {
	Experiment *uint   `json:"experiment"`
	Video      *uint   `json:"video"`
	Title      *string `json:"title" binding:"omitempty,max=200"`
}

type QuestionInput struct {
	Questionnaire *uint           `json:"questionnaire"`
	Text          *string         `json:"text"`
	QuestionType  *string         `json:"question_type"`
	Options       *datatypes.JSON `json:"options"`
	Required      *bool           `json:"required"`
	Order         *int            `json:"order"`
}

type UserPatch struct {
	IsStaff  *bool `json:"is_staff"`
	IsActive *bool `json:"is_active"`
}

// AdminService backs the operator console. Callers must already have
// checked that the requester is staff.
type AdminService interface {
	ListExperiments(ctx context.Context) ([]model.Experiment, error)
	CreateExperiment(ctx context.Context, in ExperimentInput) (*model.Experiment, error)
	UpdateExperiment(ctx context.Context, id uint, in ExperimentInput) (*model.Experiment, error)
	DeleteExperiment(ctx context.Context, id uint) error

	ListVideos(ctx context.Context, experimentID *uint) ([]model.Video, error)
	CreateVideo(ctx context.Context, in VideoInput, file, subtitle *Upload) (*model.Video, error)
	UpdateVideo(ctx context.Context, id uint, in VideoInput, file, subtitle *Upload) (*model.Video, error)
	DeleteVideo(ctx context.Context, id uint) error

	CreateFootnote(ctx context.Context, in FootnoteInput) (*model.Footnote, error)
	UpdateFootnote(ctx context.Context, id uint, in FootnoteInput) (*model.Footnote, error)
	DeleteFootnote(ctx context.Context, id uint) error

	ListQuestionnaires(ctx context.Context, filter repository.QuestionnaireFilter) ([]model.Questionnaire, error)
	CreateQuestionnaire(ctx context.Context, in QuestionnaireInput) (*model.Questionnaire, error)
	UpdateQuestionnaire(ctx context.Context, id uint, in QuestionnaireInput) (*model.Questionnaire, error)
	DeleteQuestionnaire(ctx context.Context, id uint) error

	CreateQuestion(ctx context.Context, in QuestionInput) (*model.Question, error)
	UpdateQuestion(ctx context.Context, id uint, in QuestionInput) (*model.Question, error)
	DeleteQuestion(ctx context.Context, id uint) error

	ListAnswers(ctx context.Context, filter repository.TrackingFilter) ([]model.Answer, error)
	ListProgress(ctx context.Context, filter repository.TrackingFilter) ([]model.VideoProgress, error)
	ListInteractions(ctx context.Context, filter repository.TrackingFilter) ([]model.FootnoteInteraction, error)

	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uint, patch UserPatch) (*model.User, error)
}

type adminService struct {
	experimentRepo    repository.ExperimentRepository
	videoRepo         repository.VideoRepository
	questionnaireRepo repository.QuestionnaireRepository
	trackingRepo      repository.TrackingRepository
	answerRepo        repository.AnswerRepository
	userRepo          repository.UserRepository
	media             storage.MediaStore
	exec              *db.QueryExecutor
}

// AdminRepositories groups the stores the console edits.
type AdminRepositories struct {
	Experiments    repository.ExperimentRepository
	Videos         repository.VideoRepository
	Questionnaires repository.QuestionnaireRepository
	Tracking       repository.TrackingRepository
	Answers        repository.AnswerRepository
	Users          repository.UserRepository
}

func NewAdminService(repos AdminRepositories, media storage.MediaStore, exec *db.QueryExecutor) AdminService {
	return &adminService{
		experimentRepo:    repos.Experiments,
		videoRepo:         repos.Videos,
		questionnaireRepo: repos.Questionnaires,
		trackingRepo:      repos.Tracking,
		answerRepo:        repos.Answers,
		userRepo:          repos.Users,
		media:             media,
		exec:              exec,
	}
}

func requireString(verr *ValidationError, field string, v *string) {
	if v == nil || strings.TrimSpace(*v) == "" {
		verr.Add(field, MsgRequired)
	}
}

func (s *adminService) checkRef(ctx context.Context, verr *ValidationError, m interface{}, field string, id *uint, required bool) error {
	if id == nil {
		if required {
			verr.Add(field, MsgRequired)
		}
		return nil
	}
	ok, err := s.exec.Exists(ctx, m, *id)
	if err != nil {
		return err
	}
	if !ok {
		verr.Add(field, InvalidPK(*id))
	}
	return nil
}

// Experiments

func (s *adminService) ListExperiments(ctx context.Context) ([]model.Experiment, error) {
	return s.experimentRepo.GetExperiments(ctx)
}

func (s *adminService) CreateExperiment(ctx context.Context, in ExperimentInput) (*model.Experiment, error) {
	verr := &ValidationError{}
	requireString(verr, "title", in.Title)
	if in.Description == nil {
		verr.Add("description", MsgRequired)
	}
	if in.ConsentText == nil {
		verr.Add("consent_text", MsgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	e := &model.Experiment{Title: *in.Title, Description: *in.Description, ConsentText: *in.ConsentText}
	if err := s.experimentRepo.CreateExperiment(ctx, e); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "experiment created", "experiment_id", e.ID)
	return s.experimentRepo.GetExperimentByID(ctx, e.ID)
}

func (s *adminService) UpdateExperiment(ctx context.Context, id uint, in ExperimentInput) (*model.Experiment, error) {
	fields := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, NewValidationError("title", MsgRequired)
		}
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.ConsentText != nil {
		fields["consent_text"] = *in.ConsentText
	}
	if len(fields) > 0 {
		if err := s.experimentRepo.UpdateExperiment(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.experimentRepo.GetExperimentByID(ctx, id)
}

func (s *adminService) DeleteExperiment(ctx context.Context, id uint) error {
	if err := s.experimentRepo.DeleteExperiment(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "experiment deleted", "experiment_id", id)
	return nil
}

// Videos

func (s *adminService) ListVideos(ctx context.Context, experimentID *uint) ([]model.Video, error) {
	if experimentID != nil {
		return s.videoRepo.GetVideosByExperiment(ctx, *experimentID)
	}
	return s.videoRepo.GetVideos(ctx, false)
}

func (s *adminService) CreateVideo(ctx context.Context, in VideoInput, file, subtitle *Upload) (*model.Video, error) {
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Experiment{}, "experiment", in.Experiment, true); err != nil {
		return nil, err
	}
	requireString(verr, "title", in.Title)
	if file == nil {
		verr.Add("file", "No file was submitted.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	video := &model.Video{ExperimentID: *in.Experiment, Title: *in.Title, Order: 1}
	if in.Order != nil {
		video.Order = *in.Order
	}
	var err error
	if video.File, err = s.media.Save("videos", file.Filename, file.Content); err != nil {
		return nil, err
	}
	if subtitle != nil {
		path, err := s.media.Save("subtitles", subtitle.Filename, subtitle.Content)
		if err != nil {
			s.discard(ctx, video.File)
			return nil, err
		}
		video.SubtitleFile = &path
	}
	if err := s.videoRepo.CreateVideo(ctx, video); err != nil {
		s.discard(ctx, video.File)
		if video.SubtitleFile != nil {
			s.discard(ctx, *video.SubtitleFile)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "video created", "video_id", video.ID, "file", video.File)
	return s.videoRepo.GetVideoByID(ctx, video.ID)
}

func (s *adminService) UpdateVideo(ctx context.Context, id uint, in VideoInput, file, subtitle *Upload) (*model.Video, error) {
	current, err := s.videoRepo.GetVideoByID(ctx, id)
	if err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Experiment{}, "experiment", in.Experiment, false); err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		verr.Add("title", MsgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Experiment != nil {
		fields["experiment_id"] = *in.Experiment
	}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Order != nil {
		fields["order"] = *in.Order
	}
	var saved, replaced []string
	fail := func(err error) (*model.Video, error) {
		for _, p := range saved {
			s.discard(ctx, p)
		}
		return nil, err
	}
	if file != nil {
		path, err := s.media.Save("videos", file.Filename, file.Content)
		if err != nil {
			return nil, err
		}
		saved = append(saved, path)
		fields["file"] = path
		replaced = append(replaced, current.File)
	}
	switch {
	case subtitle != nil:
		path, err := s.media.Save("subtitles", subtitle.Filename, subtitle.Content)
		if err != nil {
			return fail(err)
		}
		saved = append(saved, path)
		fields["subtitle_file"] = path
	case in.ClearSubtitle:
		fields["subtitle_file"] = nil
	}
	if _, ok := fields["subtitle_file"]; ok && current.SubtitleFile != nil {
		replaced = append(replaced, *current.SubtitleFile)
	}

	if len(fields) > 0 {
		if err := s.videoRepo.UpdateVideo(ctx, id, fields); err != nil {
			return fail(err)
		}
	}
	for _, p := range replaced {
		s.discard(ctx, p)
	}
	return s.videoRepo.GetVideoByID(ctx, id)
}

// DeleteVideo removes the row; footnotes, questionnaires and participant
// activity go with it. Media files are left in place.
func (s *adminService) DeleteVideo(ctx context.Context, id uint) error {
	if err := s.videoRepo.DeleteVideo(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "video deleted", "video_id", id)
	return nil
}

func (s *adminService) discard(ctx context.Context, path string) {
	if err := s.media.Remove(path); err != nil {
		slog.WarnContext(ctx, "failed to remove media file", "path", path, "error", err)
	}
}

// Footnotes

func (s *adminService) CreateFootnote(ctx context.Context, in FootnoteInput) (*model.Footnote, error) {
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Video{}, "video", in.Video, true); err != nil {
		return nil, err
	}
	requireString(verr, "text", in.Text)
	requireString(verr, "detailed_text", in.DetailedText)
	if in.Timestamp == nil {
		verr.Add("timestamp", MsgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	f := &model.Footnote{VideoID: *in.Video, Text: *in.Text, DetailedText: *in.DetailedText, Timestamp: *in.Timestamp}
	if err := s.videoRepo.CreateFootnote(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *adminService) UpdateFootnote(ctx context.Context, id uint, in FootnoteInput) (*model.Footnote, error) {
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Video{}, "video", in.Video, false); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Video != nil {
		fields["video_id"] = *in.Video
	}
	if in.Text != nil {
		fields["text"] = *in.Text
	}
	if in.DetailedText != nil {
		fields["detailed_text"] = *in.DetailedText
	}
	if in.Timestamp != nil {
		fields["timestamp"] = *in.Timestamp
	}
	if len(fields) > 0 {
		if err := s.videoRepo.UpdateFootnote(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.videoRepo.GetFootnoteByID(ctx, id)
}

func (s *adminService) DeleteFootnote(ctx context.Context, id uint) error {
	return s.videoRepo.DeleteFootnote(ctx, id)
}

// Questionnaires and questions

func (s *adminService) ListQuestionnaires(ctx context.Context, filter repository.QuestionnaireFilter) ([]model.Questionnaire, error) {
	return s.questionnaireRepo.GetQuestionnaires(ctx, filter)
}

func (s *adminService) CreateQuestionnaire(ctx context.Context, in QuestionnaireInput) (*model.Questionnaire, error) {
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Experiment{}, "experiment", in.Experiment, true); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, verr, &model.Video{}, "video", in.Video, true); err != nil {
		return nil, err
	}
	requireString(verr, "title", in.Title)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	q := &model.Questionnaire{ExperimentID: *in.Experiment, VideoID: *in.Video, Title: *in.Title}
	if err := s.questionnaireRepo.CreateQuestionnaire(ctx, q); err != nil {
		return nil, err
	}
	return s.questionnaireRepo.GetQuestionnaireByID(ctx, q.ID)
}

func (s *adminService) UpdateQuestionnaire(ctx context.Context, id uint, in QuestionnaireInput) (*model.Questionnaire, error) {
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Experiment{}, "experiment", in.Experiment, false); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, verr, &model.Video{}, "video", in.Video, false); err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		verr.Add("title", MsgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Experiment != nil {
		fields["experiment_id"] = *in.Experiment
	}
	if in.Video != nil {
		fields["video_id"] = *in.Video
	}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if len(fields) > 0 {
		if err := s.questionnaireRepo.UpdateQuestionnaire(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.questionnaireRepo.GetQuestionnaireByID(ctx, id)
}

func (s *adminService) DeleteQuestionnaire(ctx context.Context, id uint) error {
	return s.questionnaireRepo.DeleteQuestionnaire(ctx, id)
}

func validQuestionType(verr *ValidationError, t *string) {
	if t != nil && !model.QuestionType(*t).Valid() {
		verr.Add("question_type", fmt.Sprintf("\"%s\" is not a valid choice.", *t))
	}
}

func (s *adminService) CreateQuestion(ctx context.Context, in QuestionInput) (*model.Question, error) {
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Questionnaire{}, "questionnaire", in.Questionnaire, true); err != nil {
		return nil, err
	}
	requireString(verr, "text", in.Text)
	if in.QuestionType == nil {
		verr.Add("question_type", MsgRequired)
	}
	validQuestionType(verr, in.QuestionType)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	q := &model.Question{
		QuestionnaireID: *in.Questionnaire,
		Text:            *in.Text,
		QuestionType:    model.QuestionType(*in.QuestionType),
		Options:         in.Options,
		Required:        true,
	}
	if in.Required != nil {
		q.Required = *in.Required
	}
	if in.Order != nil {
		q.Order = *in.Order
	}
	if err := s.questionnaireRepo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *adminService) UpdateQuestion(ctx context.Context, id uint, in QuestionInput) (*model.Question, error) {
	verr := &ValidationError{}
	if err := s.checkRef(ctx, verr, &model.Questionnaire{}, "questionnaire", in.Questionnaire, false); err != nil {
		return nil, err
	}
	validQuestionType(verr, in.QuestionType)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Questionnaire != nil {
		fields["questionnaire_id"] = *in.Questionnaire
	}
	if in.Text != nil {
		fields["text"] = *in.Text
	}
	if in.QuestionType != nil {
		fields["question_type"] = *in.QuestionType
	}
	if in.Options != nil {
		fields["options"] = *in.Options
	}
	if in.Required != nil {
		fields["required"] = *in.Required
	}
	if in.Order != nil {
		fields["order"] = *in.Order
	}
	if len(fields) > 0 {
		if err := s.questionnaireRepo.UpdateQuestion(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.questionnaireRepo.GetQuestionByID(ctx, id)
}

func (s *adminService) DeleteQuestion(ctx context.Context, id uint) error {
	return s.questionnaireRepo.DeleteQuestion(ctx, id)
}

// Participant activity

func (s *adminService) ListAnswers(ctx context.Context, filter repository.TrackingFilter) ([]model.Answer, error) {
	return s.answerRepo.GetAnswers(ctx, filter)
}

func (s *adminService) ListProgress(ctx context.Context, filter repository.TrackingFilter) ([]model.VideoProgress, error) {
	return s.trackingRepo.GetProgress(ctx, filter)
}

func (s *adminService) ListInteractions(ctx context.Context, filter repository.TrackingFilter) ([]model.FootnoteInteraction, error) {
	return s.trackingRepo.GetInteractions(ctx, filter)
}

// Users

func (s *adminService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.GetAllUsers(ctx)
}

func (s *adminService) UpdateUser(ctx context.Context, id uint, patch UserPatch) (*model.User, error) {
	fields := map[string]interface{}{}
	if patch.IsStaff != nil {
		fields["is_staff"] = *patch.IsStaff
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFlags(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetUserByID(ctx, id)
}
