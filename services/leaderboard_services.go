package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"codewhisperer/database"
	"codewhisperer/metrics"
	"codewhisperer/models"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const OverallLeaderboardCacheKey = "leaderboard:overall"

// OverallExportID selects the overall leaderboard in Export
const OverallExportID = "overall"

func LeaderboardCacheKey(questionID string) string {
	return "leaderboard:question:" + questionID
}

// LeaderboardRow is one team's standing on a question
type LeaderboardRow struct {
	Rank            *int      `json:"rank"`
	TeamID          string    `json:"team_id"`
	TeamName        string    `json:"team_name"`
	Points          int       `json:"points"`
	PassedTestCases int       `json:"passed_test_cases"`
	TotalTestCases  int       `json:"total_test_cases"`
	SubmissionCode  string    `json:"submission_code"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

type QuestionLeaderboard struct {
	QuestionID   string           `json:"question_id"`
	QuestionCode string           `json:"question_code"`
	Title        string           `json:"title"`
	Entries      []LeaderboardRow `json:"entries"`
}

// OverallRow aggregates a team's results across all questions
type OverallRow struct {
	Position        int    `json:"position"`
	TeamID          string `json:"team_id"`
	TeamName        string `json:"team_name"`
	TotalPoints     int    `json:"total_points"`
	QuestionsRanked int    `json:"questions_ranked"`
	TotalPassed     int    `json:"total_passed"`
}

type LeaderboardService struct {
	db    *gorm.DB
	cache *database.Cache
	// loads collapses concurrent cache misses for the same key and generation
	loads singleflight.Group
}

func NewLeaderboardService(db *gorm.DB, cache *database.Cache) *LeaderboardService {
	return &LeaderboardService{db: db, cache: cache}
}

// GetLeaderboard returns the question's entries ranked first, unranked last
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, questionID string) (*QuestionLeaderboard, error) {
	var question models.Question
	if err := findQuestion(s.db.WithContext(ctx), questionID, &question); err != nil {
		return nil, err
	}

	return readThrough(ctx, s, LeaderboardCacheKey(question.ID), func(ctx context.Context) (*QuestionLeaderboard, error) {
		return s.loadLeaderboard(ctx, question)
	})
}

// readThrough serves key from the cache and loads it on a miss. Concurrent misses on the
// same generation share one load, and the result is only cached if no invalidation
// happened while it was being loaded.
func readThrough[T any](ctx context.Context, s *LeaderboardService, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if found, err := s.cache.GetFromCache(ctx, key, &cached); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to read leaderboard cache")
	} else if found {
		return cached, nil
	}
	if !s.cache.Enabled() {
		return load(ctx)
	}

	gen, err := s.cache.Generation(ctx, key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to read leaderboard cache generation")
		return load(ctx)
	}

	v, err, _ := s.loads.Do(key+"@"+strconv.FormatInt(gen, 10), func() (interface{}, error) {
		// the load outlives a caller that gives up while others wait on it
		loadCtx := context.WithoutCancel(ctx)
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if stored, err := s.cache.SetIfGeneration(loadCtx, key, gen, value); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to write leaderboard cache")
		} else if !stored {
			logrus.WithField("key", key).Debug("Leaderboard invalidated during load, not caching")
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (s *LeaderboardService) loadLeaderboard(ctx context.Context, question models.Question) (*QuestionLeaderboard, error) {
	start := time.Now()
	var entries []models.LeaderboardEntry
	err := s.db.WithContext(ctx).
		Preload("Team").
		Preload("Submission").
		Where("question_id = ?", question.ID).
		Find(&entries).Error
	metrics.RecordDBOperation("select", "leaderboard_entries", start)
	if err != nil {
		return nil, err
	}

	board := &QuestionLeaderboard{
		QuestionID:   question.ID,
		QuestionCode: question.Code,
		Title:        question.Title,
		Entries:      make([]LeaderboardRow, 0, len(entries)),
	}
	for _, e := range entries {
		row := LeaderboardRow{Rank: e.Rank, TeamID: e.TeamID, Points: e.Points}
		if e.Team != nil {
			row.TeamName = e.Team.Name
		}
		if e.Submission != nil {
			row.PassedTestCases = e.Submission.PassedTestCases
			row.TotalTestCases = e.Submission.TotalTestCases
			row.SubmissionCode = e.Submission.SubmissionCode
			row.SubmittedAt = e.Submission.CreatedAt
		}
		board.Entries = append(board.Entries, row)
	}
	sort.SliceStable(board.Entries, func(i, j int) bool {
		a, b := board.Entries[i], board.Entries[j]
		if (a.Rank == nil) != (b.Rank == nil) {
			return a.Rank != nil
		}
		if a.Rank != nil && *a.Rank != *b.Rank {
			return *a.Rank < *b.Rank
		}
		if a.PassedTestCases != b.PassedTestCases {
			return a.PassedTestCases > b.PassedTestCases
		}
		return a.TeamName < b.TeamName
	})
	return board, nil
}

// GetOverallLeaderboard sums points over every question; teams without entries are listed with zero
func (s *LeaderboardService) GetOverallLeaderboard(ctx context.Context) ([]OverallRow, error) {
	return readThrough(ctx, s, OverallLeaderboardCacheKey, s.loadOverall)
}

func (s *LeaderboardService) loadOverall(ctx context.Context) ([]OverallRow, error) {
	var teams []models.Team
	if err := s.db.WithContext(ctx).Find(&teams).Error; err != nil {
		return nil, err
	}
	var entries []models.LeaderboardEntry
	if err := s.db.WithContext(ctx).Preload("Submission").Find(&entries).Error; err != nil {
		return nil, err
	}

	byTeam := make(map[string]*OverallRow, len(teams))
	rows := make([]OverallRow, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, OverallRow{TeamID: t.ID, TeamName: t.Name})
	}
	for i := range rows {
		byTeam[rows[i].TeamID] = &rows[i]
	}
	for _, e := range entries {
		row, ok := byTeam[e.TeamID]
		if !ok {
			continue
		}
		row.TotalPoints += e.Points
		if e.Rank != nil {
			row.QuestionsRanked++
		}
		if e.Submission != nil {
			row.TotalPassed += e.Submission.PassedTestCases
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		if rows[i].TotalPassed != rows[j].TotalPassed {
			return rows[i].TotalPassed > rows[j].TotalPassed
		}
		return rows[i].TeamName < rows[j].TeamName
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows, nil
}

// Export renders a leaderboard as an xlsx workbook and returns it with a file name
func (s *LeaderboardService) Export(ctx context.Context, questionID string) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	var filename string
	var rows [][]interface{}
	if questionID == OverallExportID {
		overall, err := s.GetOverallLeaderboard(ctx)
		if err != nil {
			return nil, "", err
		}
		filename = "leaderboard-overall.xlsx"
		rows = append(rows, []interface{}{"Position", "Team", "Points", "Questions ranked", "Passed test cases"})
		for _, r := range overall {
			rows = append(rows, []interface{}{r.Position, r.TeamName, r.TotalPoints, r.QuestionsRanked, r.TotalPassed})
		}
	} else {
		board, err := s.GetLeaderboard(ctx, questionID)
		if err != nil {
			return nil, "", err
		}
		filename = fmt.Sprintf("leaderboard-%s.xlsx", board.QuestionCode)
		if err := f.SetSheetName(sheet, board.QuestionCode); err != nil {
			return nil, "", err
		}
		sheet = board.QuestionCode
		rows = append(rows, []interface{}{"Rank", "Team", "Points", "Passed", "Total", "Submission", "Submitted at"})
		for _, r := range board.Entries {
			var rank interface{} = "-"
			if r.Rank != nil {
				rank = *r.Rank
			}
			rows = append(rows, []interface{}{rank, r.TeamName, r.Points, r.PassedTestCases, r.TotalTestCases, r.SubmissionCode, r.SubmittedAt.UTC().Format(time.RFC3339)})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write export row %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render export: %w", err)
	}
	return buf.Bytes(), filename, nil
}
