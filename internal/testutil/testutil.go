// Package testutil opens throwaway databases and builds fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
)

// Password is the plain-text password of every user built by CreateUser.
const Password = "s3cret-pass"

// NewDB opens a private in-memory sqlite database with all migrations applied.
// It is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// CreateUser inserts an active user, optionally in group (empty means none).
func CreateUser(t testing.TB, gdb *gorm.DB, username, group string, staff bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsStaff:  staff,
		IsActive: true,
	}
	require.NoError(t, gdb.Omit("Groups").Create(user).Error)
	if group != "" {
		g := model.Group{Name: group}
		require.NoError(t, gdb.Where("name = ?", group).FirstOrCreate(&g).Error)
		require.NoError(t, gdb.Model(user).Association("Groups").Append(&g))
	}
	return user
}

func CreateExperiment(t testing.TB, gdb *gorm.DB, title string) *model.Experiment {
	t.Helper()
	e := &model.Experiment{Title: title, Description: title + " description", ConsentText: "I agree."}
	require.NoError(t, gdb.Omit("Videos", "Questionnaires").Create(e).Error)
	return e
}

func CreateVideo(t testing.TB, gdb *gorm.DB, experimentID uint, title string, order int) *model.Video {
	t.Helper()
	v := &model.Video{ExperimentID: experimentID, Title: title, File: "videos/" + strings.ToLower(strings.ReplaceAll(title, " ", "_")) + ".mp4", Order: order}
	require.NoError(t, gdb.Omit("Footnotes", "Questionnaires").Create(v).Error)
	return v
}

func CreateFootnote(t testing.TB, gdb *gorm.DB, videoID uint, text string, timestamp float64) *model.Footnote {
	t.Helper()
	f := &model.Footnote{VideoID: videoID, Text: text, DetailedText: text + " in detail", Timestamp: timestamp}
	require.NoError(t, gdb.Create(f).Error)
	return f
}

func CreateQuestionnaire(t testing.TB, gdb *gorm.DB, experimentID, videoID uint, title string) *model.Questionnaire {
	t.Helper()
	q := &model.Questionnaire{ExperimentID: experimentID, VideoID: videoID, Title: title}
	require.NoError(t, gdb.Omit("Questions").Create(q).Error)
	return q
}

func CreateQuestion(t testing.TB, gdb *gorm.DB, questionnaireID uint, text string, qt model.QuestionType, order int) *model.Question {
	t.Helper()
	q := &model.Question{QuestionnaireID: questionnaireID, Text: text, QuestionType: qt, Required: true, Order: order}
	if qt == model.QuestionRadio || qt == model.QuestionCheckbox {
		opts := datatypes.JSON(`["a","b","c"]`)
		q.Options = &opts
	}
	require.NoError(t, gdb.Create(q).Error)
	return q
}

// Interact records a footnote interaction directly in the store.
func Interact(t testing.TB, gdb *gorm.DB, userID, footnoteID uint) {
	t.Helper()
	require.NoError(t, gdb.WithContext(context.Background()).
		Create(&model.FootnoteInteraction{UserID: userID, FootnoteID: footnoteID}).Error)
}
