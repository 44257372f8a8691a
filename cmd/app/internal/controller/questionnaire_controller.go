package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/model"
	"exppro-backend/internal/service"
)

type QuestionnaireController struct {
	QuestionnaireService service.QuestionnaireService
}

func NewQuestionnaireController(questionnaireService service.QuestionnaireService) *QuestionnaireController {
	return &QuestionnaireController{QuestionnaireService: questionnaireService}
}

func (qc *QuestionnaireController) GetQuestionnaires(c *gin.Context) {
	questionnaires, err := qc.QuestionnaireService.GetQuestionnaires(c.Request.Context(), c.Query("video_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]model.QuestionnaireView, 0, len(questionnaires))
	for _, q := range questionnaires {
		views = append(views, model.NewQuestionnaireView(q))
	}
	c.JSON(http.StatusOK, views)
}

func (qc *QuestionnaireController) GetQuestionnaire(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	questionnaire, err := qc.QuestionnaireService.GetQuestionnaire(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewQuestionnaireView(*questionnaire))
}
