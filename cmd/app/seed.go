package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a demo experiment with two episodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeAll, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeAll()
			if err := db.Migrate(a.db); err != nil {
				return err
			}
			created, err := seedDemo(cmd.Context(), db.NewQueryExecutor(a.db))
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "Experiments already exist, nothing seeded.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Demo experiment seeded.")
			return nil
		},
	}
}

type seedEpisode struct {
	title     string
	file      string
	subtitle  string
	footnotes []model.Footnote
	questions []model.Question
}

var demoEpisodes = []seedEpisode{
	{
		title:    "Episode 1",
		file:     "videos/episode1.mp4",
		subtitle: "subtitles/episode1.vtt",
		footnotes: []model.Footnote{
			{Text: "Historical setting", DetailedText: "The story opens in a harbour town around 1900.", Timestamp: 12.5},
			{Text: "Dialect", DetailedText: "The fisherman speaks a regional dialect of the coast.", Timestamp: 95},
		},
		questions: []model.Question{
			{Text: "How well did you follow the plot?", QuestionType: model.QuestionRating, Options: jsonOptions(`["1","2","3","4","5"]`), Required: true, Order: 1},
			{Text: "What did you find confusing, if anything?", QuestionType: model.QuestionText, Required: false, Order: 2},
		},
	},
	{
		title:    "Episode 2",
		file:     "videos/episode2.mp4",
		subtitle: "subtitles/episode2.vtt",
		footnotes: []model.Footnote{
			{Text: "Festival", DetailedText: "The midsummer festival marks the end of the fishing season.", Timestamp: 40},
		},
		questions: []model.Question{
			{Text: "Did you open any footnotes?", QuestionType: model.QuestionRadio, Options: jsonOptions(`["Yes","No"]`), Required: true, Order: 1},
			{Text: "Which aids helped you?", QuestionType: model.QuestionCheckbox, Options: jsonOptions(`["Subtitles","Footnotes","Neither"]`), Required: false, Order: 2},
		},
	},
}

func jsonOptions(raw string) *datatypes.JSON {
	opts := datatypes.JSON(raw)
	return &opts
}

// seedDemo inserts the demo experiment unless any experiment exists. All
// rows are written in one transaction.
func seedDemo(ctx context.Context, exec *db.QueryExecutor) (bool, error) {
	created := false
	err := exec.Transaction(ctx, func(tx *gorm.DB) error {
		n, err := db.NewQueryExecutor(tx).Count(ctx, &model.Experiment{}, nil)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		experimentRepo := repository.NewExperimentRepository(tx)
		videoRepo := repository.NewVideoRepository(tx)
		questionnaireRepo := repository.NewQuestionnaireRepository(tx)

		experiment := &model.Experiment{
			Title:       "Footnotes and comprehension",
			Description: "Participants watch two short episodes with optional footnotes.",
			ConsentText: "By continuing you agree that your viewing activity and answers are recorded for research.",
		}
		if err := experimentRepo.CreateExperiment(ctx, experiment); err != nil {
			return err
		}

		for i, ep := range demoEpisodes {
			subtitle := ep.subtitle
			video := &model.Video{ExperimentID: experiment.ID, Title: ep.title, File: ep.file, SubtitleFile: &subtitle, Order: i + 1}
			if err := videoRepo.CreateVideo(ctx, video); err != nil {
				return err
			}
			for _, f := range ep.footnotes {
				f.VideoID = video.ID
				if err := videoRepo.CreateFootnote(ctx, &f); err != nil {
					return err
				}
			}
			questionnaire := &model.Questionnaire{ExperimentID: experiment.ID, VideoID: video.ID, Title: ep.title + " questionnaire"}
			if err := questionnaireRepo.CreateQuestionnaire(ctx, questionnaire); err != nil {
				return err
			}
			for _, q := range ep.questions {
				q.QuestionnaireID = questionnaire.ID
				if err := questionnaireRepo.CreateQuestion(ctx, &q); err != nil {
					return err
				}
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed demo experiment: %w", err)
	}
	return created, nil
}
