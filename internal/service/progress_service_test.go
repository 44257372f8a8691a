package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
	"exppro-backend/internal/service"
	"exppro-backend/internal/testutil"
)

func TestRecordVideoProgressConverges(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.CreateUser(t, gdb, "alice", "Group1", false)
	exp := testutil.CreateExperiment(t, gdb, "Study")
	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	svc := service.NewProgressService(repository.NewTrackingRepository(gdb), db.NewQueryExecutor(gdb))
	ctx := context.Background()

	first, err := svc.RecordVideoProgress(ctx, user.ID, payload(t, fmt.Sprintf(`{"video": %d, "watched_seconds": 12.5}`, video.ID)))
	require.NoError(t, err)
	assert.Equal(t, 12.5, first.WatchedSeconds)
	assert.False(t, first.Completed)

	last, err := svc.RecordVideoProgress(ctx, user.ID, payload(t, fmt.Sprintf(`{"video": "%d", "watched_seconds": 300, "completed": true}`, video.ID)))
	require.NoError(t, err)
	assert.Equal(t, first.ID, last.ID)
	assert.Equal(t, 300.0, last.WatchedSeconds)
	assert.True(t, last.Completed)

	var rows int64
	require.NoError(t, gdb.Model(&model.VideoProgress{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestRecordVideoProgressValidation(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.CreateUser(t, gdb, "alice", "Group1", false)
	exp := testutil.CreateExperiment(t, gdb, "Study")
	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	svc := service.NewProgressService(repository.NewTrackingRepository(gdb), db.NewQueryExecutor(gdb))
	ctx := context.Background()

	_, err := svc.RecordVideoProgress(ctx, user.ID, payload(t, `{"video": 999}`))
	assert.Equal(t, []string{service.InvalidPK(999)}, fieldErrors(t, err)["video"])

	_, err = svc.RecordVideoProgress(ctx, user.ID, payload(t, `{}`))
	assert.Equal(t, []string{service.MsgRequired}, fieldErrors(t, err)["video"])

	_, err = svc.RecordVideoProgress(ctx, user.ID, payload(t,
		fmt.Sprintf(`{"video": %d, "watched_seconds": "lots", "completed": "maybe"}`, video.ID)))
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{service.MsgNotANumber}, fields["watched_seconds"])
	assert.Equal(t, []string{service.MsgNotABoolean}, fields["completed"])
}

func TestRecordFootnoteInteractionIsIdempotent(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.CreateUser(t, gdb, "alice", "Group1", false)
	exp := testutil.CreateExperiment(t, gdb, "Study")
	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	note := testutil.CreateFootnote(t, gdb, video.ID, "Context", 10)
	svc := service.NewProgressService(repository.NewTrackingRepository(gdb), db.NewQueryExecutor(gdb))
	ctx := context.Background()
	body := fmt.Sprintf(`{"footnote": %d}`, note.ID)

	first, err := svc.RecordFootnoteInteraction(ctx, user.ID, payload(t, body))
	require.NoError(t, err)
	second, err := svc.RecordFootnoteInteraction(ctx, user.ID, payload(t, body))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Timestamp.Equal(second.Timestamp))

	_, err = svc.RecordFootnoteInteraction(ctx, user.ID, payload(t, `{"footnote": 404}`))
	assert.Equal(t, []string{service.InvalidPK(404)}, fieldErrors(t, err)["footnote"])
}
