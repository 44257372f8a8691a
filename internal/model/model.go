package model

import (
	"time"

	"gorm.io/datatypes"
)

// CohortAscending is the only group that sees videos in ascending order.
const CohortAscending = "Group1"

type User struct {
	ID         uint       `gorm:"primaryKey"`
	Username   string     `gorm:"size:150;not null;uniqueIndex"`
	Email      string     `gorm:"size:254"`
	Password   string     `gorm:"size:128;not null"`
	IsStaff    bool       `gorm:"not null;default:false"`
	IsActive   bool       `gorm:"not null"`
	Groups     []Group    `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE"`
	DateJoined time.Time  `gorm:"autoCreateTime"`
	LastLogin  *time.Time
}

// PrimaryGroup returns the first group the user belongs to, or nil.
// Groups must be preloaded ordered by id.
func (u *User) PrimaryGroup() *Group {
	if len(u.Groups) == 0 {
		return nil
	}
	return &u.Groups[0]
}

type Group struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:150;not null;uniqueIndex"`
}

// AuthToken is the single long-lived token issued to a user.
type AuthToken struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"size:512;not null;uniqueIndex"`
	UserID    uint      `gorm:"not null;uniqueIndex"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Experiment struct {
	ID             uint            `gorm:"primaryKey"`
	Title          string          `gorm:"size:200;not null"`
	Description    string          `gorm:"type:text;not null"`
	ConsentText    string          `gorm:"type:text;not null"`
	Videos         []Video         `gorm:"constraint:OnDelete:CASCADE"`
	Questionnaires []Questionnaire `gorm:"constraint:OnDelete:CASCADE"`
}

type Video struct {
	ID             uint            `gorm:"primaryKey"`
	ExperimentID   uint            `gorm:"not null;index"`
	Title          string          `gorm:"size:200;not null"`
	File           string          `gorm:"size:255;not null"`
	SubtitleFile   *string         `gorm:"size:255"`
	Order          int             `gorm:"column:order;not null"`
	Footnotes      []Footnote      `gorm:"constraint:OnDelete:CASCADE"`
	Questionnaires []Questionnaire `gorm:"constraint:OnDelete:CASCADE"`
}

type Footnote struct {
	ID           uint    `gorm:"primaryKey"`
	VideoID      uint    `gorm:"not null;index"`
	Text         string  `gorm:"type:text;not null"`
	DetailedText string  `gorm:"type:text;not null"`
	Timestamp    float64 `gorm:"not null"`
}

type FootnoteInteraction struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_interaction_user_footnote"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE"`
	FootnoteID uint      `gorm:"not null;uniqueIndex:idx_interaction_user_footnote;index"`
	Footnote   *Footnote `gorm:"constraint:OnDelete:CASCADE"`
	Timestamp  time.Time `gorm:"autoCreateTime"`
}

type Questionnaire struct {
	ID           uint       `gorm:"primaryKey"`
	ExperimentID uint       `gorm:"not null;index"`
	Title        string     `gorm:"size:200;not null"`
	VideoID      uint       `gorm:"not null;index"`
	Questions    []Question `gorm:"constraint:OnDelete:CASCADE"`
}

// QuestionType values mirror what the questionnaire form renders.
type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionRating   QuestionType = "rating"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionRadio, QuestionCheckbox, QuestionRating:
		return true
	}
	return false
}

type Question struct {
	ID              uint            `gorm:"primaryKey"`
	QuestionnaireID uint            `gorm:"not null;index"`
	Text            string          `gorm:"type:text;not null"`
	QuestionType    QuestionType    `gorm:"size:10;not null"`
	Options         *datatypes.JSON `gorm:"type:json"`
	Required        bool            `gorm:"not null"`
	Order           int             `gorm:"column:order;not null"`
}

type Answer struct {
	ID            uint            `gorm:"primaryKey"`
	UserID        uint            `gorm:"not null;uniqueIndex:idx_answer_user_question"`
	User          *User           `gorm:"constraint:OnDelete:CASCADE"`
	QuestionID    uint            `gorm:"not null;uniqueIndex:idx_answer_user_question;index"`
	Question      *Question       `gorm:"constraint:OnDelete:CASCADE"`
	AnswerText    *string         `gorm:"type:text"`
	AnswerOptions *datatypes.JSON `gorm:"type:json"`
}

type VideoProgress struct {
	ID             uint    `gorm:"primaryKey"`
	UserID         uint    `gorm:"not null;uniqueIndex:idx_progress_user_video"`
	User           *User   `gorm:"constraint:OnDelete:CASCADE"`
	VideoID        uint    `gorm:"not null;uniqueIndex:idx_progress_user_video;index"`
	Video          *Video  `gorm:"constraint:OnDelete:CASCADE"`
	WatchedSeconds float64 `gorm:"not null;default:0"`
	Completed      bool    `gorm:"not null;default:false"`
}

// FootnoteStat is one row of the footnote interaction aggregate.
type FootnoteStat struct {
	FootnoteID       uint    `json:"footnote_id"`
	VideoTitle       string  `json:"video_title"`
	Timestamp        float64 `json:"timestamp"`
	Text             string  `json:"text"`
	InteractionCount int64   `json:"interaction_count"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Group{}, &User{}, &AuthToken{},
		&Experiment{}, &Video{}, &Footnote{}, &FootnoteInteraction{},
		&Questionnaire{}, &Question{}, &Answer{}, &VideoProgress{},
	}
}
