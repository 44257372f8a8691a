package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/service"
	"exppro-backend/utilities"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth           service.AuthService
	Experiments    service.ExperimentService
	Videos         service.VideoService
	Questionnaires service.QuestionnaireService
	Progress       service.ProgressService
	Answers        service.AnswerService
	Stats          service.StatsService
	Admin          service.AdminService
}

// Options carries the HTTP-level settings taken from configuration.
type Options struct {
	// BasePath prefixes every route; empty mounts at the root.
	BasePath       string
	MediaRoot      string
	MediaURL       string
	MaxUploadBytes int64
	// AuthLimiter guards signup and login; nil disables it.
	AuthLimiter gin.HandlerFunc
	Ping        Pinger
}

func RegisterRoutes(r *gin.Engine, svc Services, opts Options) {
	authenticated := utilities.AuthMiddleware(svc.Auth)
	base := r.Group(opts.BasePath)
	mediaPrefix := opts.BasePath + opts.MediaURL

	// Auth routes.
	authCtrl := NewAuthController(svc.Auth)
	public := base.Group("")
	if opts.AuthLimiter != nil {
		public.Use(opts.AuthLimiter)
	}
	handle(public, http.MethodPost, "/signup", authCtrl.Signup)
	handle(public, http.MethodPost, "/login", authCtrl.Login)

	api := base.Group("", authenticated)

	// Experiment and video routes.
	experimentCtrl := NewExperimentController(svc.Experiments, mediaPrefix)
	handle(api, http.MethodGet, "/experiments", experimentCtrl.GetExperiments)
	handle(api, http.MethodGet, "/experiments/:id", experimentCtrl.GetExperiment)

	videoCtrl := NewVideoController(svc.Videos, mediaPrefix)
	handle(api, http.MethodGet, "/videos", videoCtrl.GetVideos)
	handle(api, http.MethodGet, "/videos/:id", videoCtrl.GetVideo)

	// Questionnaire routes.
	questionnaireCtrl := NewQuestionnaireController(svc.Questionnaires)
	handle(api, http.MethodGet, "/questionnaires", questionnaireCtrl.GetQuestionnaires)
	handle(api, http.MethodGet, "/questionnaires/:id", questionnaireCtrl.GetQuestionnaire)

	// Tracking routes.
	trackingCtrl := NewTrackingController(svc.Progress, svc.Answers)
	handle(api, http.MethodPost, "/video-progress", trackingCtrl.RecordVideoProgress)
	handle(api, http.MethodPost, "/footnote-interaction", trackingCtrl.RecordFootnoteInteraction)
	handle(api, http.MethodPost, "/submit-answers", trackingCtrl.SubmitAnswers)

	// Stats routes. The service enforces staff access itself.
	statsCtrl := NewStatsController(svc.Stats)
	handle(api, http.MethodGet, "/footnote-stats", statsCtrl.GetFootnoteStats)
	handle(api, http.MethodGet, "/footnote-stats/report", statsCtrl.DownloadReport)

	// Admin routes.
	adminCtrl := NewAdminController(svc.Admin, mediaPrefix, opts.MaxUploadBytes)
	admin := base.Group("/admin", authenticated, utilities.RequireStaff())
	{
		handle(admin, http.MethodGet, "/experiments", adminCtrl.ListExperiments)
		handle(admin, http.MethodPost, "/experiments", adminCtrl.CreateExperiment)
		handle(admin, http.MethodPatch, "/experiments/:id", adminCtrl.UpdateExperiment)
		handle(admin, http.MethodDelete, "/experiments/:id", adminCtrl.DeleteExperiment)

		handle(admin, http.MethodGet, "/videos", adminCtrl.ListVideos)
		handle(admin, http.MethodPost, "/videos", adminCtrl.CreateVideo)
		handle(admin, http.MethodPatch, "/videos/:id", adminCtrl.UpdateVideo)
		handle(admin, http.MethodDelete, "/videos/:id", adminCtrl.DeleteVideo)

		handle(admin, http.MethodPost, "/footnotes", adminCtrl.CreateFootnote)
		handle(admin, http.MethodPatch, "/footnotes/:id", adminCtrl.UpdateFootnote)
		handle(admin, http.MethodDelete, "/footnotes/:id", adminCtrl.DeleteFootnote)

		handle(admin, http.MethodGet, "/questionnaires", adminCtrl.ListQuestionnaires)
		handle(admin, http.MethodPost, "/questionnaires", adminCtrl.CreateQuestionnaire)
		handle(admin, http.MethodPatch, "/questionnaires/:id", adminCtrl.UpdateQuestionnaire)
		handle(admin, http.MethodDelete, "/questionnaires/:id", adminCtrl.DeleteQuestionnaire)

		handle(admin, http.MethodPost, "/questions", adminCtrl.CreateQuestion)
		handle(admin, http.MethodPatch, "/questions/:id", adminCtrl.UpdateQuestion)
		handle(admin, http.MethodDelete, "/questions/:id", adminCtrl.DeleteQuestion)

		handle(admin, http.MethodGet, "/answers", adminCtrl.ListAnswers)
		handle(admin, http.MethodGet, "/video-progress", adminCtrl.ListProgress)
		handle(admin, http.MethodGet, "/footnote-interactions", adminCtrl.ListInteractions)

		handle(admin, http.MethodGet, "/users", adminCtrl.ListUsers)
		handle(admin, http.MethodPatch, "/users/:id", adminCtrl.UpdateUser)
	}

	// Static routes.
	if opts.MediaRoot != "" && opts.MediaURL != "" {
		base.StaticFS(strings.TrimSuffix(opts.MediaURL, "/"), gin.Dir(opts.MediaRoot, false))
	}
	base.GET("/healthz", NewHealthController(opts.Ping).Healthz)
}

// handle registers path both with and without a trailing slash, so clients
// written against either style reach the handler without a redirect.
func handle(g *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	g.Handle(method, path, handlers...)
	g.Handle(method, path+"/", handlers...)
}
