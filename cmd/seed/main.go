package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"codewhisperer/config"
	"codewhisperer/database"
	"codewhisperer/logger"
	"codewhisperer/models"
	"codewhisperer/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func sampleQuestions() []services.QuestionInput {
	return []services.QuestionInput{
		{
			Title:                "Multiply by 50",
			Description:          "Chain functions so that the output is the input multiplied by fifty.",
			Difficulty:           models.DifficultyEasy,
			WinnerPoints:         30,
			RunnerUpPoints:       20,
			SecondRunnerUpPoints: 10,
			ParticipantPoints:    5,
			TestCases: []services.TestCaseInput{
				{Input: "2", Expected: "100", IsVisible: true},
				{Input: "5", Expected: "250", IsVisible: true},
				{Input: "7", Expected: "350"},
				{Input: "-3", Expected: "-150"},
				{Input: "0", Expected: "0"},
			},
		},
		{
			Title:                "Square Plus One",
			Description:          "Square the input, then add one.",
			Difficulty:           models.DifficultyMedium,
			WinnerPoints:         50,
			RunnerUpPoints:       35,
			SecondRunnerUpPoints: 20,
			ParticipantPoints:    10,
			TestCases: []services.TestCaseInput{
				{Input: "3", Expected: "10", IsVisible: true},
				{Input: "0", Expected: "1"},
				{Input: "-4", Expected: "17"},
				{Input: "12", Expected: "145"},
			},
		},
		{
			Title:                "Backwards",
			Description:          "Return the input text written backwards, in capital letters.",
			Difficulty:           models.DifficultyHard,
			WinnerPoints:         80,
			RunnerUpPoints:       60,
			SecondRunnerUpPoints: 40,
			ParticipantPoints:    15,
			TestCases: []services.TestCaseInput{
				{Input: "abc", Expected: "CBA", IsVisible: true},
				{Input: "level", Expected: "LEVEL"},
				{Input: "Go", Expected: "OG"},
			},
		},
	}
}

func run(ctx context.Context, cfg *config.Config, withQuestions bool) error {
	db, err := database.InitDB(cfg.PostgresDSN())
	if err != nil {
		return err
	}
	accounts, err := services.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		return err
	}
	if err := database.Populate(db, accounts); err != nil {
		return err
	}
	if !withQuestions {
		return nil
	}

	questions := services.NewQuestionService(db, nil, nil, nil, cfg.NotifyTimeout)
	for _, in := range sampleQuestions() {
		var existing models.Question
		err := db.WithContext(ctx).Where("title = ?", in.Title).First(&existing).Error
		if err == nil {
			logrus.WithField("code", existing.Code).Info("Question already seeded")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		q, err := questions.Create(ctx, in)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"code": q.Code, "title": q.Title}).Info("Question seeded")
	}
	return nil
}

func main() {
	withQuestions := flag.Bool("questions", true, "also seed the sample questions")
	flag.Parse()

	cfg := config.Load()
	logger.Setup(cfg.LogLevel, false)

	if err := run(context.Background(), cfg, *withQuestions); err != nil {
		logrus.WithError(err).Error("Seeding failed")
		os.Exit(1)
	}
	logrus.Info("Seeding complete")
}
