package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"codewhisperer/database"
	"codewhisperer/models"
	"codewhisperer/operations"
	"codewhisperer/worksheet"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createTeams(t *testing.T, db *gorm.DB, names ...string) []models.Team {
	t.Helper()
	teams := make([]models.Team, 0, len(names))
	for _, name := range names {
		team := models.Team{Name: name}
		if err := db.Create(&team).Error; err != nil {
			t.Fatalf("failed to create team %s: %v", name, err)
		}
		teams = append(teams, team)
	}
	return teams
}

func multiplyByFifty() QuestionInput {
	return QuestionInput{
		Title:                "Multiply by 50",
		Description:          "Return the input multiplied by fifty",
		WinnerPoints:         30,
		RunnerUpPoints:       20,
		SecondRunnerUpPoints: 10,
		ParticipantPoints:    5,
		TestCases: []TestCaseInput{
			{Input: "2", Expected: "100", IsVisible: true},
			{Input: "7", Expected: "350"},
			{Input: "0", Expected: "0"},
		},
	}
}

func chain(op string, args ...string) worksheet.Graph {
	return worksheet.Graph{
		Nodes: []worksheet.Node{
			{ID: "in", Type: worksheet.NodeInput},
			{ID: "f", Type: worksheet.NodeFunction, Data: worksheet.NodeData{Operation: op, Args: args}},
			{ID: "out", Type: worksheet.NodeOutput},
		},
		Edges: []worksheet.Edge{
			{ID: "e1", Source: "in", Target: "f"},
			{ID: "e2", Source: "f", Target: "out"},
		},
	}
}

func identity() worksheet.Graph {
	return worksheet.Graph{
		Nodes: []worksheet.Node{{ID: "in", Type: worksheet.NodeInput}, {ID: "out", Type: worksheet.NodeOutput}},
		Edges: []worksheet.Edge{{ID: "e", Source: "in", Target: "out"}},
	}
}

// stepClock advances one minute per reading
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type recordingNotifier struct {
	calls chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(chan string, 64)}
}

func (n *recordingNotifier) LeaderboardChanged(ctx context.Context, questionCode string) error {
	n.calls <- questionCode
	return nil
}

type fixture struct {
	db          *gorm.DB
	questions   *QuestionService
	submissions *SubmissionService
	leaderboard *LeaderboardService
	notifier    *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	clock := newStepClock()
	executor := worksheet.NewExecutor(operations.NewRegistry())
	return &fixture{
		db:          db,
		questions:   NewQuestionService(db, nil, nil, notifier, time.Second),
		submissions: NewSubmissionService(db, nil, executor, notifier, time.Second).WithClock(clock.Now),
		leaderboard: NewLeaderboardService(db, nil),
		notifier:    notifier,
	}
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
