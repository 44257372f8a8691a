package controller

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
	"exppro-backend/internal/service"
)

// AdminController exposes the operator console. Every route sits behind
// RequireStaff.
type AdminController struct {
	AdminService   service.AdminService
	MediaURL       string
	MaxUploadBytes int64
}

func NewAdminController(adminService service.AdminService, mediaURL string, maxUploadBytes int64) *AdminController {
	return &AdminController{AdminService: adminService, MediaURL: mediaURL, MaxUploadBytes: maxUploadBytes}
}

// Experiments

func (ac *AdminController) ListExperiments(c *gin.Context) {
	experiments, err := ac.AdminService.ListExperiments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	urlFor := mediaURL(c, ac.MediaURL)
	views := make([]model.ExperimentView, 0, len(experiments))
	for _, e := range experiments {
		views = append(views, model.NewExperimentView(e, urlFor))
	}
	c.JSON(http.StatusOK, views)
}

func (ac *AdminController) CreateExperiment(c *gin.Context) {
	var in service.ExperimentInput
	if !bindJSON(c, &in) {
		return
	}
	experiment, err := ac.AdminService.CreateExperiment(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewExperimentView(*experiment, mediaURL(c, ac.MediaURL)))
}

func (ac *AdminController) UpdateExperiment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.ExperimentInput
	if !bindJSON(c, &in) {
		return
	}
	experiment, err := ac.AdminService.UpdateExperiment(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewExperimentView(*experiment, mediaURL(c, ac.MediaURL)))
}

func (ac *AdminController) DeleteExperiment(c *gin.Context) {
	ac.delete(c, ac.AdminService.DeleteExperiment)
}

// Videos

func (ac *AdminController) ListVideos(c *gin.Context) {
	verr := &service.ValidationError{}
	experimentID := queryUint(c, "experiment", verr)
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}
	videos, err := ac.AdminService.ListVideos(c.Request.Context(), experimentID)
	if err != nil {
		respondError(c, err)
		return
	}
	urlFor := mediaURL(c, ac.MediaURL)
	views := make([]model.AdminVideoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, model.NewAdminVideoView(v, urlFor))
	}
	c.JSON(http.StatusOK, views)
}

func (ac *AdminController) CreateVideo(c *gin.Context) {
	in, file, subtitle, cleanup, ok := ac.bindVideo(c)
	if !ok {
		return
	}
	defer cleanup()
	video, err := ac.AdminService.CreateVideo(c.Request.Context(), in, file, subtitle)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewAdminVideoView(*video, mediaURL(c, ac.MediaURL)))
}

func (ac *AdminController) UpdateVideo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, file, subtitle, cleanup, ok := ac.bindVideo(c)
	if !ok {
		return
	}
	defer cleanup()
	video, err := ac.AdminService.UpdateVideo(c.Request.Context(), id, in, file, subtitle)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewAdminVideoView(*video, mediaURL(c, ac.MediaURL)))
}

func (ac *AdminController) DeleteVideo(c *gin.Context) {
	ac.delete(c, ac.AdminService.DeleteVideo)
}

// bindVideo reads the multipart form of a video upload. The returned cleanup
// closes any opened file parts.
func (ac *AdminController) bindVideo(c *gin.Context) (service.VideoInput, *service.Upload, *service.Upload, func(), bool) {
	var in service.VideoInput
	if ac.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ac.MaxUploadBytes)
	}
	if err := c.ShouldBind(&in); err != nil {
		respondError(c, bindingError(err))
		return in, nil, nil, nil, false
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	open := func(field string) (*service.Upload, error) {
		header, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		opened = append(opened, f)
		return &service.Upload{Filename: header.Filename, Content: f}, nil
	}

	file, err := open("file")
	if err != nil {
		cleanup()
		respondError(c, err)
		return in, nil, nil, nil, false
	}
	subtitle, err := open("subtitle_file")
	if err != nil {
		cleanup()
		respondError(c, err)
		return in, nil, nil, nil, false
	}
	return in, file, subtitle, cleanup, true
}

// Footnotes

func (ac *AdminController) CreateFootnote(c *gin.Context) {
	var in service.FootnoteInput
	if !bindJSON(c, &in) {
		return
	}
	footnote, err := ac.AdminService.CreateFootnote(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, footnoteAdminView(*footnote))
}

func (ac *AdminController) UpdateFootnote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.FootnoteInput
	if !bindJSON(c, &in) {
		return
	}
	footnote, err := ac.AdminService.UpdateFootnote(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, footnoteAdminView(*footnote))
}

func (ac *AdminController) DeleteFootnote(c *gin.Context) {
	ac.delete(c, ac.AdminService.DeleteFootnote)
}

func footnoteAdminView(f model.Footnote) gin.H {
	v := model.NewFootnoteView(f)
	return gin.H{"id": v.ID, "video": f.VideoID, "text": v.Text, "detailed_text": v.DetailedText, "timestamp": v.Timestamp}
}

// Questionnaires

func (ac *AdminController) ListQuestionnaires(c *gin.Context) {
	verr := &service.ValidationError{}
	filter := repository.QuestionnaireFilter{
		ExperimentID: queryUint(c, "experiment", verr),
		VideoID:      queryUint(c, "video", verr),
	}
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}
	questionnaires, err := ac.AdminService.ListQuestionnaires(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]model.AdminQuestionnaireView, 0, len(questionnaires))
	for _, q := range questionnaires {
		views = append(views, model.NewAdminQuestionnaireView(q))
	}
	c.JSON(http.StatusOK, views)
}

func (ac *AdminController) CreateQuestionnaire(c *gin.Context) {
	var in service.QuestionnaireInput
	if !bindJSON(c, &in) {
		return
	}
	questionnaire, err := ac.AdminService.CreateQuestionnaire(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewAdminQuestionnaireView(*questionnaire))
}

func (ac *AdminController) UpdateQuestionnaire(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.QuestionnaireInput
	if !bindJSON(c, &in) {
		return
	}
	questionnaire, err := ac.AdminService.UpdateQuestionnaire(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewAdminQuestionnaireView(*questionnaire))
}

func (ac *AdminController) DeleteQuestionnaire(c *gin.Context) {
	ac.delete(c, ac.AdminService.DeleteQuestionnaire)
}

// Questions

func (ac *AdminController) CreateQuestion(c *gin.Context) {
	var in service.QuestionInput
	if !bindJSON(c, &in) {
		return
	}
	question, err := ac.AdminService.CreateQuestion(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, questionAdminView(*question))
}

func (ac *AdminController) UpdateQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.QuestionInput
	if !bindJSON(c, &in) {
		return
	}
	question, err := ac.AdminService.UpdateQuestion(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questionAdminView(*question))
}

func (ac *AdminController) DeleteQuestion(c *gin.Context) {
	ac.delete(c, ac.AdminService.DeleteQuestion)
}

func questionAdminView(q model.Question) gin.H {
	v := model.NewQuestionView(q)
	return gin.H{
		"id":            v.ID,
		"questionnaire": q.QuestionnaireID,
		"text":          v.Text,
		"question_type": v.QuestionType,
		"options":       v.Options,
		"required":      v.Required,
		"order":         v.Order,
	}
}

// Participant activity

func (ac *AdminController) ListAnswers(c *gin.Context) {
	verr := &service.ValidationError{}
	filter := repository.TrackingFilter{
		UserID:          queryUint(c, "user", verr),
		QuestionnaireID: queryUint(c, "questionnaire", verr),
	}
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}
	answers, err := ac.AdminService.ListAnswers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]model.AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, model.NewAnswerView(a))
	}
	c.JSON(http.StatusOK, views)
}

func (ac *AdminController) ListProgress(c *gin.Context) {
	verr := &service.ValidationError{}
	filter := repository.TrackingFilter{
		UserID:    queryUint(c, "user", verr),
		VideoID:   queryUint(c, "video", verr),
		Completed: queryBool(c, "completed", verr),
	}
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}
	rows, err := ac.AdminService.ListProgress(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]model.VideoProgressView, 0, len(rows))
	for _, p := range rows {
		views = append(views, model.NewVideoProgressView(p))
	}
	c.JSON(http.StatusOK, views)
}

func (ac *AdminController) ListInteractions(c *gin.Context) {
	verr := &service.ValidationError{}
	filter := repository.TrackingFilter{
		UserID:  queryUint(c, "user", verr),
		VideoID: queryUint(c, "video", verr),
	}
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}
	rows, err := ac.AdminService.ListInteractions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]model.FootnoteInteractionView, 0, len(rows))
	for _, i := range rows {
		views = append(views, model.NewFootnoteInteractionView(i))
	}
	c.JSON(http.StatusOK, views)
}

// Users

func (ac *AdminController) ListUsers(c *gin.Context) {
	users, err := ac.AdminService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, model.NewUserView(u))
	}
	c.JSON(http.StatusOK, views)
}

func (ac *AdminController) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch service.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	user, err := ac.AdminService.UpdateUser(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewUserView(*user))
}

func (ac *AdminController) delete(c *gin.Context, remove func(ctx context.Context, id uint) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
