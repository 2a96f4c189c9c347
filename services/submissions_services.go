package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"codewhisperer/database"
	"codewhisperer/metrics"
	"codewhisperer/models"
	"codewhisperer/utils"
	"codewhisperer/worksheet"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveRequest is a result to store for the caller's team
type SaveRequest struct {
	Worksheet       worksheet.Graph         `json:"worksheet"`
	PassedTestCases int                     `json:"passed_test_cases"`
	TotalTestCases  int                     `json:"total_test_cases"`
	FailedTestCases []models.FailedTestCase `json:"failed_test_cases"`
}

func (r SaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TotalTestCases, validation.Required, validation.Min(1)),
		validation.Field(&r.PassedTestCases, validation.Min(0), validation.Max(r.TotalTestCases)),
	)
}

// SaveResult tells the caller what the save did to the stored history and the leaderboard
type SaveResult struct {
	Submission         models.Submission `json:"submission"`
	Overwrote          bool              `json:"overwrote"`
	LeaderboardUpdated bool              `json:"leaderboard_updated"`
	Rank               *int              `json:"rank"`
	Points             int               `json:"points"`
}

// SubmitResult is the outcome of a server-side evaluation followed by a save
type SubmitResult struct {
	Evaluation worksheet.Evaluation `json:"evaluation"`
	SaveResult
}

type SubmissionService struct {
	db            *gorm.DB
	cache         *database.Cache
	executor      *worksheet.Executor
	notifier      Notifier
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewSubmissionService(db *gorm.DB, cache *database.Cache, executor *worksheet.Executor, notifier Notifier, notifyTimeout time.Duration) *SubmissionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SubmissionService{
		db:            db,
		cache:         cache,
		executor:      executor,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for contest windows and submission timestamps
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

// Save stores a result in the team's bounded history and, when it improves the team's best,
// recomputes the question's ranks. The question row stays locked for the whole transaction
// so saves on the same question are applied one at a time.
func (s *SubmissionService) Save(ctx context.Context, teamID, questionID string, req SaveRequest) (*SaveResult, error) {
	if err := req.Validate(); err != nil {
		return nil, newValidationError(err)
	}
	if err := worksheet.Validate(req.Worksheet); err != nil {
		return nil, err
	}

	now := s.now()
	allPassed := req.TotalTestCases > 0 && req.PassedTestCases == req.TotalTestCases
	result := &SaveResult{}
	var question models.Question

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findQuestion(tx.Clauses(clause.Locking{Strength: "UPDATE"}), questionID, &question); err != nil {
			return err
		}
		if !question.IsOpen(now) {
			return ErrContestClosed
		}
		var team models.Team
		if err := findTeam(tx, teamID, &team); err != nil {
			return err
		}

		var history []models.Submission
		if err := tx.Where("team_id = ? AND question_id = ?", team.ID, question.ID).
			Order("created_at asc, id asc").
			Find(&history).Error; err != nil {
			return err
		}

		var entries []models.LeaderboardEntry
		if err := tx.Preload("Submission").
			Where("team_id = ? AND question_id = ?", team.ID, question.ID).
			Limit(1).
			Find(&entries).Error; err != nil {
			return err
		}
		var previousBest *int
		var current *models.LeaderboardEntry
		if len(entries) > 0 {
			current = &entries[0]
			if current.Submission != nil {
				best := current.Submission.PassedTestCases
				previousBest = &best
			}
		}
		improved := utils.ShouldUpdateLeaderboard(previousBest, req.PassedTestCases)

		plan := utils.PlanSlot(history, allPassed)
		submission := models.Submission{
			TeamID:          team.ID,
			QuestionID:      question.ID,
			Worksheet:       req.Worksheet,
			PassedTestCases: req.PassedTestCases,
			TotalTestCases:  req.TotalTestCases,
			AllPassed:       allPassed,
			FailedTestCases: req.FailedTestCases,
			CreatedAt:       now,
		}
		slot := "create"
		if plan.Create {
			if err := tx.Create(&submission).Error; err != nil {
				return fmt.Errorf("failed to create submission: %w", err)
			}
			submission.SubmissionCode = models.SubmissionCode(submission.ID)
			if err := tx.Model(&submission).Update("submission_code", submission.SubmissionCode).Error; err != nil {
				return err
			}
		} else {
			slot = "overwrite"
			submission.ID = plan.Overwrite.ID
			submission.SubmissionCode = models.SubmissionCode(submission.ID)
			if err := tx.Save(&submission).Error; err != nil {
				return fmt.Errorf("failed to overwrite submission %d: %w", submission.ID, err)
			}
			result.Overwrote = true
		}
		metrics.SubmissionsSaved.WithLabelValues(outcomeLabel(allPassed), slot).Inc()
		result.Submission = submission

		evictedBest := current != nil && plan.Overwrite != nil && plan.Overwrite.ID == current.SubmissionID
		switch {
		case improved:
			entry := models.LeaderboardEntry{TeamID: team.ID, QuestionID: question.ID, SubmissionID: submission.ID, UpdatedAt: now}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "team_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"submission_id", "updated_at"}),
			}).Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to upsert leaderboard entry: %w", err)
			}
		case evictedBest:
			if err := repointEntry(tx, current, now); err != nil {
				return err
			}
		default:
			return nil
		}

		ranked, err := recomputeRanks(tx, &question)
		if err != nil {
			return err
		}
		result.LeaderboardUpdated = true
		for _, st := range ranked {
			if st.TeamID == team.ID {
				result.Rank = st.Rank
				result.Points = st.Points
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.LeaderboardUpdated {
		if err := s.cache.Invalidate(ctx, LeaderboardCacheKey(question.ID), OverallLeaderboardCacheKey); err != nil {
			logrus.WithError(err).Warn("Failed to invalidate leaderboard cache")
		}
		notifyAsync(s.notifier, s.notifyTimeout, question.Code)
	}
	return result, nil
}

func outcomeLabel(allPassed bool) string {
	if allPassed {
		return "passed"
	}
	return "failed"
}

// repointEntry moves an entry whose submission slot was reused onto the pair's best stored row
func repointEntry(tx *gorm.DB, entry *models.LeaderboardEntry, now time.Time) error {
	var rows []models.Submission
	if err := tx.Where("team_id = ? AND question_id = ?", entry.TeamID, entry.QuestionID).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PassedTestCases != rows[j].PassedTestCases {
			return rows[i].PassedTestCases > rows[j].PassedTestCases
		}
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return tx.Model(&models.LeaderboardEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{"submission_id": rows[0].ID, "updated_at": now}).Error
}

// recomputeRanks re-sorts every entry of the question and writes rank and points back in one batch
func recomputeRanks(tx *gorm.DB, question *models.Question) ([]utils.Standing, error) {
	start := time.Now()
	defer func() {
		metrics.LeaderboardRecomputations.Inc()
		metrics.LeaderboardRecomputeDuration.Observe(time.Since(start).Seconds())
	}()

	var entries []models.LeaderboardEntry
	if err := tx.Preload("Submission").Where("question_id = ?", question.ID).Find(&entries).Error; err != nil {
		return nil, err
	}

	standings := make([]utils.Standing, 0, len(entries))
	for _, e := range entries {
		st := utils.Standing{EntryID: e.ID, TeamID: e.TeamID, SubmissionID: e.SubmissionID}
		if e.Submission != nil {
			st.Passed = e.Submission.PassedTestCases
			st.SubmittedAt = e.Submission.CreatedAt
		}
		standings = append(standings, st)
	}

	ranked := utils.RankStandings(standings, utils.PointTiers{
		Winner:         question.WinnerPoints,
		RunnerUp:       question.RunnerUpPoints,
		SecondRunnerUp: question.SecondRunnerUpPoints,
		Participant:    question.ParticipantPoints,
	})
	for _, st := range ranked {
		if err := tx.Model(&models.LeaderboardEntry{}).
			Where("id = ?", st.EntryID).
			Updates(map[string]interface{}{"rank": st.Rank, "points": st.Points}).Error; err != nil {
			return nil, fmt.Errorf("failed to update rank of entry %d: %w", st.EntryID, err)
		}
	}
	return ranked, nil
}

// Submit evaluates the worksheet against every test case of the question, hidden ones
// included, then saves the computed result. A halted run stores nothing.
func (s *SubmissionService) Submit(ctx context.Context, teamID, questionID string, graph worksheet.Graph) (*SubmitResult, error) {
	question, err := s.loadForEvaluation(ctx, questionID, true)
	if err != nil {
		return nil, err
	}
	if !question.IsOpen(s.now()) {
		return nil, ErrContestClosed
	}

	ev, err := s.evaluate(ctx, "submit", graph, question.TestCases)
	if err != nil {
		return nil, err
	}

	failed := ev.Failed()
	report := make([]models.FailedTestCase, 0, len(failed))
	for _, f := range failed {
		report = append(report, models.FailedTestCase{Input: f.Input, Output: f.Output, Expected: f.Expected, OriginalIdx: f.Index})
	}

	saved, err := s.Save(ctx, teamID, question.ID, SaveRequest{
		Worksheet:       graph,
		PassedTestCases: ev.Passed,
		TotalTestCases:  ev.Total,
		FailedTestCases: report,
	})
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Evaluation: ev, SaveResult: *saved}, nil
}

// Run is a practice run against the visible test cases only; nothing is stored
func (s *SubmissionService) Run(ctx context.Context, questionID string, graph worksheet.Graph) (worksheet.Evaluation, error) {
	question, err := s.loadForEvaluation(ctx, questionID, false)
	if err != nil {
		return worksheet.Evaluation{}, err
	}
	return s.evaluate(ctx, "run", graph, question.TestCases)
}

func (s *SubmissionService) loadForEvaluation(ctx context.Context, questionID string, includeHidden bool) (*models.Question, error) {
	var question models.Question
	db := s.db.WithContext(ctx).Preload("TestCases", func(tx *gorm.DB) *gorm.DB {
		if !includeHidden {
			tx = tx.Where("is_visible = ?", true)
		}
		return tx.Order("id asc")
	})
	if err := findQuestion(db, questionID, &question); err != nil {
		return nil, err
	}
	if len(question.TestCases) == 0 {
		return nil, fmt.Errorf("question %s has no test cases to run: %w", question.Code, ErrValidation)
	}
	return &question, nil
}

func (s *SubmissionService) evaluate(ctx context.Context, kind string, graph worksheet.Graph, testCases []models.TestCase) (worksheet.Evaluation, error) {
	cases := make([]worksheet.Case, 0, len(testCases))
	for _, tc := range testCases {
		cases = append(cases, worksheet.Case{Input: tc.Input, Expected: tc.Expected})
	}

	ev, err := s.executor.Evaluate(ctx, graph, cases)
	switch {
	case errors.Is(err, worksheet.ErrExecutionHalted):
		metrics.GraphExecutions.WithLabelValues(kind, "halted").Inc()
		return ev, err
	case err != nil:
		metrics.GraphExecutions.WithLabelValues(kind, "invalid").Inc()
		return ev, err
	}
	metrics.GraphExecutions.WithLabelValues(kind, outcomeLabel(ev.AllPassed)).Inc()
	return ev, nil
}

// ListForTeam returns the stored history of a team on a question, newest first
func (s *SubmissionService) ListForTeam(ctx context.Context, teamID, questionID string) ([]models.Submission, error) {
	var question models.Question
	db := s.db.WithContext(ctx)
	if err := findQuestion(db, questionID, &question); err != nil {
		return nil, err
	}
	var submissions []models.Submission
	if err := db.Where("team_id = ? AND question_id = ?", teamID, question.ID).
		Order("created_at desc, id desc").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
