package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/model"
	"exppro-backend/internal/service"
	"exppro-backend/utilities"
)

type VideoController struct {
	VideoService service.VideoService
	MediaURL     string
}

func NewVideoController(videoService service.VideoService, mediaURL string) *VideoController {
	return &VideoController{VideoService: videoService, MediaURL: mediaURL}
}

// GetVideos lists all videos in the order the viewer's cohort watches them.
func (vc *VideoController) GetVideos(c *gin.Context) {
	viewer, _ := utilities.CurrentUser(c)
	videos, err := vc.VideoService.GetVideosForViewer(c.Request.Context(), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewVideoViews(videos, mediaURL(c, vc.MediaURL)))
}

func (vc *VideoController) GetVideo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	video, err := vc.VideoService.GetVideo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewVideoView(*video, mediaURL(c, vc.MediaURL)))
}
