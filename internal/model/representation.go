package model

import (
	"time"

	"gorm.io/datatypes"
)

// Representations decide which fields cross the API boundary. Nested
// relations are expanded only where listed here.

// MediaURLFunc turns a stored media path into a client-facing URL.
type MediaURLFunc func(path string) string

type AuthView struct {
	Token    string  `json:"token"`
	UserID   uint    `json:"user_id"`
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Group    *string `json:"group"`
}

func NewAuthView(token string, u *User) AuthView {
	v := AuthView{Token: token, UserID: u.ID, Email: u.Email, Username: u.Username}
	if g := u.PrimaryGroup(); g != nil {
		name := g.Name
		v.Group = &name
	}
	return v
}

type FootnoteView struct {
	ID           uint    `json:"id"`
	Text         string  `json:"text"`
	DetailedText string  `json:"detailed_text"`
	Timestamp    float64 `json:"timestamp"`
}

func NewFootnoteView(f Footnote) FootnoteView {
	return FootnoteView{ID: f.ID, Text: f.Text, DetailedText: f.DetailedText, Timestamp: f.Timestamp}
}

type VideoView struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	File         string         `json:"file"`
	SubtitleFile *string        `json:"subtitle_file"`
	Order        int            `json:"order"`
	Footnotes    []FootnoteView `json:"footnotes"`
}

func NewVideoView(v Video, mediaURL MediaURLFunc) VideoView {
	view := VideoView{
		ID:        v.ID,
		Title:     v.Title,
		File:      mediaURL(v.File),
		Order:     v.Order,
		Footnotes: make([]FootnoteView, 0, len(v.Footnotes)),
	}
	if v.SubtitleFile != nil && *v.SubtitleFile != "" {
		u := mediaURL(*v.SubtitleFile)
		view.SubtitleFile = &u
	}
	for _, f := range v.Footnotes {
		view.Footnotes = append(view.Footnotes, NewFootnoteView(f))
	}
	return view
}

func NewVideoViews(videos []Video, mediaURL MediaURLFunc) []VideoView {
	views := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, NewVideoView(v, mediaURL))
	}
	return views
}

type ExperimentView struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ConsentText string      `json:"consent_text"`
	Videos      []VideoView `json:"videos"`
}

func NewExperimentView(e Experiment, mediaURL MediaURLFunc) ExperimentView {
	return ExperimentView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		ConsentText: e.ConsentText,
		Videos:      NewVideoViews(e.Videos, mediaURL),
	}
}

type QuestionView struct {
	ID           uint            `json:"id"`
	Text         string          `json:"text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      *datatypes.JSON `json:"options"`
	Required     bool            `json:"required"`
	Order        int             `json:"order"`
}

func NewQuestionView(q Question) QuestionView {
	return QuestionView{
		ID:           q.ID,
		Text:         q.Text,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		Required:     q.Required,
		Order:        q.Order,
	}
}

type QuestionnaireView struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Video     uint           `json:"video"`
	Questions []QuestionView `json:"questions"`
}

func NewQuestionnaireView(q Questionnaire) QuestionnaireView {
	view := QuestionnaireView{
		ID:        q.ID,
		Title:     q.Title,
		Video:     q.VideoID,
		Questions: make([]QuestionView, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		view.Questions = append(view.Questions, NewQuestionView(question))
	}
	return view
}

type AnswerView struct {
	ID            uint            `json:"id"`
	User          uint            `json:"user"`
	Question      uint            `json:"question"`
	AnswerText    *string         `json:"answer_text"`
	AnswerOptions *datatypes.JSON `json:"answer_options"`
}

func NewAnswerView(a Answer) AnswerView {
	return AnswerView{
		ID:            a.ID,
		User:          a.UserID,
		Question:      a.QuestionID,
		AnswerText:    a.AnswerText,
		AnswerOptions: a.AnswerOptions,
	}
}

type VideoProgressView struct {
	ID             uint    `json:"id"`
	User           uint    `json:"user"`
	Video          uint    `json:"video"`
	WatchedSeconds float64 `json:"watched_seconds"`
	Completed      bool    `json:"completed"`
}

func NewVideoProgressView(p VideoProgress) VideoProgressView {
	return VideoProgressView{
		ID:             p.ID,
		User:           p.UserID,
		Video:          p.VideoID,
		WatchedSeconds: p.WatchedSeconds,
		Completed:      p.Completed,
	}
}

type FootnoteInteractionView struct {
	ID        uint      `json:"id"`
	User      uint      `json:"user"`
	Footnote  uint      `json:"footnote"`
	Timestamp time.Time `json:"timestamp"`
}

func NewFootnoteInteractionView(i FootnoteInteraction) FootnoteInteractionView {
	return FootnoteInteractionView{ID: i.ID, User: i.UserID, Footnote: i.FootnoteID, Timestamp: i.Timestamp}
}

// UserView is the operator-facing projection; passwords never leave the store.
type UserView struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Group      *string    `json:"group"`
	IsStaff    bool       `json:"is_staff"`
	IsActive   bool       `json:"is_active"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
}

func NewUserView(u User) UserView {
	view := UserView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsStaff:    u.IsStaff,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
		LastLogin:  u.LastLogin,
	}
	if g := u.PrimaryGroup(); g != nil {
		name := g.Name
		view.Group = &name
	}
	return view
}

// AdminVideoView adds the owning experiment for the operator console.
type AdminVideoView struct {
	VideoView
	Experiment uint `json:"experiment"`
}

func NewAdminVideoView(v Video, mediaURL MediaURLFunc) AdminVideoView {
	return AdminVideoView{VideoView: NewVideoView(v, mediaURL), Experiment: v.ExperimentID}
}

type AdminQuestionnaireView struct {
	QuestionnaireView
	Experiment uint `json:"experiment"`
}

func NewAdminQuestionnaireView(q Questionnaire) AdminQuestionnaireView {
	return AdminQuestionnaireView{QuestionnaireView: NewQuestionnaireView(q), Experiment: q.ExperimentID}
}
