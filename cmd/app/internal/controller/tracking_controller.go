package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/model"
	"exppro-backend/internal/service"
	"exppro-backend/utilities"
)

// TrackingController records participant activity: watch progress,
// footnote openings and questionnaire answers.
type TrackingController struct {
	ProgressService service.ProgressService
	AnswerService   service.AnswerService
}

func NewTrackingController(progressService service.ProgressService, answerService service.AnswerService) *TrackingController {
	return &TrackingController{ProgressService: progressService, AnswerService: answerService}
}

func (tc *TrackingController) RecordVideoProgress(c *gin.Context) {
	user, _ := utilities.CurrentUser(c)
	body, ok := readPayload(c)
	if !ok {
		return
	}
	progress, err := tc.ProgressService.RecordVideoProgress(c.Request.Context(), user.ID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewVideoProgressView(*progress))
}

func (tc *TrackingController) RecordFootnoteInteraction(c *gin.Context) {
	user, _ := utilities.CurrentUser(c)
	body, ok := readPayload(c)
	if !ok {
		return
	}
	interaction, err := tc.ProgressService.RecordFootnoteInteraction(c.Request.Context(), user.ID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewFootnoteInteractionView(*interaction))
}

func (tc *TrackingController) SubmitAnswers(c *gin.Context) {
	user, _ := utilities.CurrentUser(c)
	body, ok := readPayload(c)
	if !ok {
		return
	}
	items, err := service.DecodeAnswerItems(body)
	if err != nil {
		respondError(c, err)
		return
	}
	answers, err := tc.AnswerService.SubmitAnswers(c.Request.Context(), user.ID, items)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]model.AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, model.NewAnswerView(a))
	}
	c.JSON(http.StatusCreated, views)
}
