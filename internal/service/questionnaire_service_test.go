package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
	"exppro-backend/internal/service"
	"exppro-backend/internal/testutil"
)

func TestGetQuestionnairesFiltersByVideo(t *testing.T) {
	gdb := testutil.NewDB(t)
	exp := testutil.CreateExperiment(t, gdb, "Study")
	v1 := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	v2 := testutil.CreateVideo(t, gdb, exp.ID, "Two", 2)
	q1 := testutil.CreateQuestionnaire(t, gdb, exp.ID, v1.ID, "After one")
	testutil.CreateQuestionnaire(t, gdb, exp.ID, v2.ID, "After two")

	svc := service.NewQuestionnaireService(repository.NewQuestionnaireRepository(gdb))
	ctx := context.Background()

	all, err := svc.GetQuestionnaires(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.GetQuestionnaires(ctx, fmt.Sprint(v1.ID))
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, q1.ID, filtered[0].ID)

	for _, bad := range []string{"abc", "9999", "-1"} {
		got, err := svc.GetQuestionnaires(ctx, bad)
		require.NoError(t, err, bad)
		assert.Empty(t, got, bad)
	}
}

func TestQuestionnaireQuestionsAreOrdered(t *testing.T) {
	gdb := testutil.NewDB(t)
	exp := testutil.CreateExperiment(t, gdb, "Study")
	v := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	q := testutil.CreateQuestionnaire(t, gdb, exp.ID, v.ID, "After one")
	third := testutil.CreateQuestion(t, gdb, q.ID, "third", model.QuestionText, 2)
	first := testutil.CreateQuestion(t, gdb, q.ID, "first", model.QuestionRating, 1)
	second := testutil.CreateQuestion(t, gdb, q.ID, "second", model.QuestionRadio, 1)

	svc := service.NewQuestionnaireService(repository.NewQuestionnaireRepository(gdb))
	got, err := svc.GetQuestionnaire(context.Background(), q.ID)
	require.NoError(t, err)

	ids := make([]uint, 0, len(got.Questions))
	for _, question := range got.Questions {
		ids = append(ids, question.ID)
	}
	assert.Equal(t, []uint{first.ID, second.ID, third.ID}, ids)
}
