package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
	"exppro-backend/internal/service"
	"exppro-backend/internal/storage"
	"exppro-backend/internal/testutil"
)

func newAdminService(t *testing.T, gdb *gorm.DB) (service.AdminService, string) {
	t.Helper()
	root := t.TempDir()
	media, err := storage.NewLocalMediaStore(root)
	require.NoError(t, err)
	return service.NewAdminService(service.AdminRepositories{
		Experiments:    repository.NewExperimentRepository(gdb),
		Videos:         repository.NewVideoRepository(gdb),
		Questionnaires: repository.NewQuestionnaireRepository(gdb),
		Tracking:       repository.NewTrackingRepository(gdb),
		Answers:        repository.NewAnswerRepository(gdb),
		Users:          repository.NewUserRepository(gdb),
	}, media, db.NewQueryExecutor(gdb)), root
}

func ptr[T any](v T) *T { return &v }

func TestAdminExperimentLifecycle(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin, _ := newAdminService(t, gdb)
	ctx := context.Background()

	_, err := admin.CreateExperiment(ctx, service.ExperimentInput{Title: ptr("  ")})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "consent_text")

	exp, err := admin.CreateExperiment(ctx, service.ExperimentInput{
		Title: ptr("Study"), Description: ptr("About footnotes"), ConsentText: ptr("I agree"),
	})
	require.NoError(t, err)

	updated, err := admin.UpdateExperiment(ctx, exp.ID, service.ExperimentInput{Title: ptr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "About footnotes", updated.Description)

	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	testutil.CreateFootnote(t, gdb, video.ID, "note", 1)

	require.NoError(t, admin.DeleteExperiment(ctx, exp.ID))
	var videos, footnotes int64
	require.NoError(t, gdb.Model(&model.Video{}).Count(&videos).Error)
	require.NoError(t, gdb.Model(&model.Footnote{}).Count(&footnotes).Error)
	assert.Zero(t, videos, "videos cascade")
	assert.Zero(t, footnotes, "footnotes cascade")

	assert.ErrorIs(t, admin.DeleteExperiment(ctx, exp.ID), service.ErrNotFound)
	_, err = admin.UpdateExperiment(ctx, exp.ID, service.ExperimentInput{Title: ptr("x")})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAdminVideoUpload(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin, root := newAdminService(t, gdb)
	ctx := context.Background()
	exp := testutil.CreateExperiment(t, gdb, "Study")

	_, err := admin.CreateVideo(ctx, service.VideoInput{Experiment: ptr(uint(999)), Title: ptr("x")}, nil, nil)
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{service.InvalidPK(999)}, fields["experiment"])
	assert.Contains(t, fields, "file")

	video, err := admin.CreateVideo(ctx,
		service.VideoInput{Experiment: &exp.ID, Title: ptr("Episode 1"), Order: ptr(2)},
		&service.Upload{Filename: "ep 1.mp4", Content: strings.NewReader("video-bytes")},
		&service.Upload{Filename: "ep1.vtt", Content: strings.NewReader("WEBVTT")},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, video.Order)
	assert.True(t, strings.HasPrefix(video.File, "videos/"))
	assert.True(t, strings.HasSuffix(video.File, "-ep_1.mp4"))
	require.NotNil(t, video.SubtitleFile)
	assert.True(t, strings.HasPrefix(*video.SubtitleFile, "subtitles/"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(video.File)))
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))

	oldSubtitle := *video.SubtitleFile
	cleared, err := admin.UpdateVideo(ctx, video.ID, service.VideoInput{Title: ptr("Episode One"), ClearSubtitle: true}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Episode One", cleared.Title)
	assert.Nil(t, cleared.SubtitleFile)
	assert.Equal(t, video.File, cleared.File)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(oldSubtitle)))
	assert.True(t, os.IsNotExist(err), "replaced subtitle is removed")

	listed, err := admin.ListVideos(ctx, &exp.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	other, err := admin.ListVideos(ctx, ptr(uint(12345)))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAdminQuestionsValidateType(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin, _ := newAdminService(t, gdb)
	ctx := context.Background()
	exp := testutil.CreateExperiment(t, gdb, "Study")
	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)

	questionnaire, err := admin.CreateQuestionnaire(ctx, service.QuestionnaireInput{
		Experiment: &exp.ID, Video: &video.ID, Title: ptr("After one"),
	})
	require.NoError(t, err)

	_, err = admin.CreateQuestion(ctx, service.QuestionInput{
		Questionnaire: &questionnaire.ID, Text: ptr("How?"), QuestionType: ptr("slider"),
	})
	assert.Equal(t, []string{`"slider" is not a valid choice.`}, fieldErrors(t, err)["question_type"])

	opts := datatypes.JSON(`["yes","no"]`)
	q, err := admin.CreateQuestion(ctx, service.QuestionInput{
		Questionnaire: &questionnaire.ID, Text: ptr("Liked it?"), QuestionType: ptr("radio"), Options: &opts,
	})
	require.NoError(t, err)
	assert.True(t, q.Required, "questions are required unless stated")

	q, err = admin.UpdateQuestion(ctx, q.ID, service.QuestionInput{Required: ptr(false), Order: ptr(5)})
	require.NoError(t, err)
	assert.False(t, q.Required)
	assert.Equal(t, 5, q.Order)

	listed, err := admin.ListQuestionnaires(ctx, repository.QuestionnaireFilter{ExperimentID: &exp.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Questions, 1)

	require.NoError(t, admin.DeleteQuestionnaire(ctx, questionnaire.ID))
	assert.ErrorIs(t, admin.DeleteQuestion(ctx, q.ID), service.ErrNotFound, "questions cascade")
}

func TestAdminFootnotes(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin, _ := newAdminService(t, gdb)
	ctx := context.Background()
	exp := testutil.CreateExperiment(t, gdb, "Study")
	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)

	_, err := admin.CreateFootnote(ctx, service.FootnoteInput{Video: &video.ID, Text: ptr("t")})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "detailed_text")
	assert.Contains(t, fields, "timestamp")

	note, err := admin.CreateFootnote(ctx, service.FootnoteInput{
		Video: &video.ID, Text: ptr("t"), DetailedText: ptr("long"), Timestamp: ptr(4.5),
	})
	require.NoError(t, err)

	note, err = admin.UpdateFootnote(ctx, note.ID, service.FootnoteInput{Timestamp: ptr(9.0)})
	require.NoError(t, err)
	assert.Equal(t, 9.0, note.Timestamp)
	assert.Equal(t, "long", note.DetailedText)

	require.NoError(t, admin.DeleteFootnote(ctx, note.ID))
}

func TestAdminActivityListings(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin, _ := newAdminService(t, gdb)
	ctx := context.Background()
	exp := testutil.CreateExperiment(t, gdb, "Study")
	v1 := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	v2 := testutil.CreateVideo(t, gdb, exp.ID, "Two", 2)
	n1 := testutil.CreateFootnote(t, gdb, v1.ID, "a", 1)
	n2 := testutil.CreateFootnote(t, gdb, v2.ID, "b", 1)
	alice := testutil.CreateUser(t, gdb, "alice", "Group1", false)
	bob := testutil.CreateUser(t, gdb, "bob", "Group2", false)

	testutil.Interact(t, gdb, alice.ID, n1.ID)
	testutil.Interact(t, gdb, alice.ID, n2.ID)
	testutil.Interact(t, gdb, bob.ID, n2.ID)
	require.NoError(t, gdb.Create(&model.VideoProgress{UserID: alice.ID, VideoID: v1.ID, WatchedSeconds: 10, Completed: true}).Error)
	require.NoError(t, gdb.Create(&model.VideoProgress{UserID: bob.ID, VideoID: v1.ID, WatchedSeconds: 3}).Error)

	interactions, err := admin.ListInteractions(ctx, repository.TrackingFilter{VideoID: &v2.ID})
	require.NoError(t, err)
	assert.Len(t, interactions, 2)
	interactions, err = admin.ListInteractions(ctx, repository.TrackingFilter{UserID: &bob.ID, VideoID: &v2.ID})
	require.NoError(t, err)
	assert.Len(t, interactions, 1)

	progress, err := admin.ListProgress(ctx, repository.TrackingFilter{Completed: ptr(true)})
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, alice.ID, progress[0].UserID)

	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	updated, err := admin.UpdateUser(ctx, bob.ID, service.UserPatch{IsStaff: ptr(true), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.True(t, updated.IsStaff)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.PrimaryGroup())
	assert.Equal(t, "Group2", updated.PrimaryGroup().Name)

	_, err = admin.UpdateUser(ctx, 9999, service.UserPatch{IsStaff: ptr(true)})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAdminUpdateVideoDiscardsNewFilesOnFailure(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin, root := newAdminService(t, gdb)
	ctx := context.Background()
	exp := testutil.CreateExperiment(t, gdb, "Study")

	video, err := admin.CreateVideo(ctx,
		service.VideoInput{Experiment: &exp.ID, Title: ptr("Episode 1")},
		&service.Upload{Filename: "ep1.mp4", Content: strings.NewReader("v1")}, nil)
	require.NoError(t, err)

	_, err = admin.UpdateVideo(ctx, video.ID, service.VideoInput{},
		&service.Upload{Filename: "ep1-recut.mp4", Content: strings.NewReader("v2")},
		&service.Upload{Filename: "ep1.vtt", Content: iotest.ErrReader(errors.New("connection reset"))})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "videos"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the original upload remains")
	assert.Equal(t, filepath.Base(video.File), entries[0].Name())

	subtitles, err := os.ReadDir(filepath.Join(root, "subtitles"))
	if err == nil {
		assert.Empty(t, subtitles)
	}

	unchanged, err := admin.ListVideos(ctx, &exp.ID)
	require.NoError(t, err)
	require.Len(t, unchanged, 1)
	assert.Equal(t, video.File, unchanged[0].File)
}
