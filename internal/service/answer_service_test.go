package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
	"exppro-backend/internal/service"
	"exppro-backend/internal/testutil"
)

type answerFixture struct {
	gdb       *gorm.DB
	user      *model.User
	questions []*model.Question
}

func newAnswerFixture(t *testing.T) answerFixture {
	gdb := testutil.NewDB(t)
	exp := testutil.CreateExperiment(t, gdb, "Study")
	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	q := testutil.CreateQuestionnaire(t, gdb, exp.ID, video.ID, "After one")
	return answerFixture{
		gdb:  gdb,
		user: testutil.CreateUser(t, gdb, "alice", "Group1", false),
		questions: []*model.Question{
			testutil.CreateQuestion(t, gdb, q.ID, "q1", model.QuestionText, 1),
			testutil.CreateQuestion(t, gdb, q.ID, "q2", model.QuestionCheckbox, 2),
			testutil.CreateQuestion(t, gdb, q.ID, "q3", model.QuestionRating, 3),
		},
	}
}

func (f answerFixture) service(atomic bool) service.AnswerService {
	return service.NewAnswerService(repository.NewAnswerRepository(f.gdb), db.NewQueryExecutor(f.gdb), atomic)
}

func (f answerFixture) stored(t *testing.T) []model.Answer {
	var answers []model.Answer
	require.NoError(t, f.gdb.Order("id").Find(&answers).Error)
	return answers
}

func TestSubmitAnswersCreatesAllItems(t *testing.T) {
	f := newAnswerFixture(t)
	body := fmt.Sprintf(`{"answers": [
		{"question": %d, "answer_text": "fine"},
		{"question": %d, "answer_options": ["a", "c"]},
		{"question": %d, "answer_options": 4, "user": 999}
	]}`, f.questions[0].ID, f.questions[1].ID, f.questions[2].ID)

	created, err := f.service(false).SubmitAnswers(context.Background(), f.user.ID, items(t, body))
	require.NoError(t, err)
	require.Len(t, created, 3)

	for _, a := range created {
		assert.Equal(t, f.user.ID, a.UserID, "client-supplied user is ignored")
	}
	require.NotNil(t, created[0].AnswerText)
	assert.Equal(t, "fine", *created[0].AnswerText)
	assert.Nil(t, created[0].AnswerOptions)
	require.NotNil(t, created[1].AnswerOptions)
	assert.JSONEq(t, `["a","c"]`, string(*created[1].AnswerOptions))
	assert.JSONEq(t, `4`, string(*created[2].AnswerOptions))
}

func TestSubmitAnswersStopsAtFirstInvalidItem(t *testing.T) {
	f := newAnswerFixture(t)
	ctx := context.Background()
	svc := f.service(false)

	_, err := svc.SubmitAnswers(ctx, f.user.ID, items(t, fmt.Sprintf(`{"answers": [{"question": %d, "answer_text": "x"}]}`, f.questions[1].ID)))
	require.NoError(t, err)

	// Item 2 duplicates the answer above; item 3 must never be attempted.
	body := fmt.Sprintf(`{"answers": [
		{"question": %d, "answer_text": "one"},
		{"question": %d, "answer_text": "again"},
		{"question": %d, "answer_text": "three"}
	]}`, f.questions[0].ID, f.questions[1].ID, f.questions[2].ID)
	_, err = svc.SubmitAnswers(ctx, f.user.ID, items(t, body))
	assert.Equal(t, []string{service.MsgNotUnique}, fieldErrors(t, err)["non_field_errors"])

	stored := f.stored(t)
	require.Len(t, stored, 2)
	assert.Equal(t, f.questions[1].ID, stored[0].QuestionID)
	assert.Equal(t, f.questions[0].ID, stored[1].QuestionID, "item 1 stays committed")
}

func TestSubmitAnswersAtomicRollsBack(t *testing.T) {
	f := newAnswerFixture(t)
	body := fmt.Sprintf(`{"answers": [
		{"question": %d, "answer_text": "one"},
		{"question": 999999, "answer_text": "ghost"},
		{"question": %d, "answer_text": "three"}
	]}`, f.questions[0].ID, f.questions[2].ID)

	_, err := f.service(true).SubmitAnswers(context.Background(), f.user.ID, items(t, body))
	assert.Equal(t, []string{service.InvalidPK(999999)}, fieldErrors(t, err)["question"])
	assert.Empty(t, f.stored(t))
}

func TestSubmitAnswersUnknownQuestionNonAtomic(t *testing.T) {
	f := newAnswerFixture(t)
	body := fmt.Sprintf(`{"answers": [
		{"question": %d},
		{"question": "abc"}
	]}`, f.questions[0].ID)

	_, err := f.service(false).SubmitAnswers(context.Background(), f.user.ID, items(t, body))
	assert.Contains(t, fieldErrors(t, err), "question")
	assert.Len(t, f.stored(t), 1)
}

func TestDecodeAnswerItems(t *testing.T) {
	got, err := service.DecodeAnswerItems(payload(t, `{}`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = service.DecodeAnswerItems(payload(t, `{"answers": {"question": 1}}`))
	assert.Equal(t, []string{service.MsgNotAList}, fieldErrors(t, err)["answers"])
}

func TestSubmitEmptyBatch(t *testing.T) {
	f := newAnswerFixture(t)
	created, err := f.service(false).SubmitAnswers(context.Background(), f.user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}
