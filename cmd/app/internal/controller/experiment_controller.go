package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/model"
	"exppro-backend/internal/service"
)

type ExperimentController struct {
	ExperimentService service.ExperimentService
	MediaURL          string
}

func NewExperimentController(experimentService service.ExperimentService, mediaURL string) *ExperimentController {
	return &ExperimentController{ExperimentService: experimentService, MediaURL: mediaURL}
}

func (ec *ExperimentController) GetExperiments(c *gin.Context) {
	experiments, err := ec.ExperimentService.GetExperiments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	urlFor := mediaURL(c, ec.MediaURL)
	views := make([]model.ExperimentView, 0, len(experiments))
	for _, e := range experiments {
		views = append(views, model.NewExperimentView(e, urlFor))
	}
	c.JSON(http.StatusOK, views)
}

func (ec *ExperimentController) GetExperiment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	experiment, err := ec.ExperimentService.GetExperiment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewExperimentView(*experiment, mediaURL(c, ec.MediaURL)))
}
