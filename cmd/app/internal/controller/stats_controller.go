package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/service"
	"exppro-backend/utilities"
)

type StatsController struct {
	StatsService service.StatsService
}

func NewStatsController(statsService service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

func (sc *StatsController) GetFootnoteStats(c *gin.Context) {
	user, _ := utilities.CurrentUser(c)
	stats, err := sc.StatsService.GetFootnoteStats(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (sc *StatsController) DownloadReport(c *gin.Context) {
	user, _ := utilities.CurrentUser(c)
	pdf, err := sc.StatsService.FootnoteStatsReport(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="footnote-stats.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
