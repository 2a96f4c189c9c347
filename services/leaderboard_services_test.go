package services

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"codewhisperer/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// queryPause holds the next leaderboard_entries query until release is closed
type queryPause struct {
	armed   atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func pauseEntriesQuery(t *testing.T, db *gorm.DB, beforeQuery bool) *queryPause {
	t.Helper()
	p := &queryPause{paused: make(chan struct{}), release: make(chan struct{})}
	p.armed.Store(true)
	hold := func(tx *gorm.DB) {
		if tx.Statement.Table == "leaderboard_entries" && p.armed.CompareAndSwap(true, false) {
			close(p.paused)
			<-p.release
		}
	}
	var err error
	if beforeQuery {
		err = db.Callback().Query().Before("gorm:query").Register("test:hold_entries", hold)
	} else {
		err = db.Callback().Query().After("gorm:preload").Register("test:hold_entries", hold)
	}
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}
	return p
}

func (p *queryPause) wait(t *testing.T) {
	t.Helper()
	select {
	case <-p.paused:
	case <-time.After(5 * time.Second):
		t.Fatalf("leaderboard query never started")
	}
}

func TestGetOverallLeaderboard_SumsPointsAcrossQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teams := createTeams(t, f.db, "Alpha", "Bravo", "Charlie")
	q1, _ := f.questions.Create(ctx, multiplyByFifty())
	q2, _ := f.questions.Create(ctx, multiplyByFifty())

	f.submissions.Save(ctx, teams[0].ID, q1.ID, result(3, 3)) // 30
	f.submissions.Save(ctx, teams[1].ID, q1.ID, result(2, 3)) // 20
	f.submissions.Save(ctx, teams[1].ID, q2.ID, result(3, 3)) // 30

	rows, err := f.leaderboard.GetOverallLeaderboard(ctx)
	if err != nil {
		t.Fatalf("overall: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("every team should be listed, got %d rows", len(rows))
	}
	if rows[0].TeamName != "Bravo" || rows[0].TotalPoints != 50 || rows[0].QuestionsRanked != 2 || rows[0].Position != 1 {
		t.Fatalf("unexpected leader %+v", rows[0])
	}
	if rows[1].TeamName != "Alpha" || rows[1].TotalPoints != 30 {
		t.Fatalf("unexpected runner-up %+v", rows[1])
	}
	if rows[2].TeamName != "Charlie" || rows[2].TotalPoints != 0 || rows[2].Position != 3 {
		t.Fatalf("team without entries should trail with zero, got %+v", rows[2])
	}
}

func TestGetLeaderboard_CachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cache := database.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	defer cache.Close()

	leaderboard := NewLeaderboardService(f.db, cache)
	submissions := NewSubmissionService(f.db, cache, f.submissions.executor, nil, time.Second).WithClock(newStepClock().Now)
	teams := createTeams(t, f.db, "Alpha", "Bravo")
	q, _ := f.questions.Create(ctx, multiplyByFifty())

	submissions.Save(ctx, teams[0].ID, q.ID, result(2, 3))
	board, err := leaderboard.GetLeaderboard(ctx, q.ID)
	if err != nil || len(board.Entries) != 1 {
		t.Fatalf("unexpected board %+v (%v)", board, err)
	}
	if !mr.Exists(LeaderboardCacheKey(q.ID)) {
		t.Fatalf("leaderboard was not cached")
	}

	submissions.Save(ctx, teams[1].ID, q.ID, result(3, 3))
	if mr.Exists(LeaderboardCacheKey(q.ID)) {
		t.Fatalf("recompute must invalidate the cached leaderboard")
	}
	board, _ = leaderboard.GetLeaderboard(ctx, q.Code)
	if len(board.Entries) != 2 || board.Entries[0].TeamName != "Bravo" {
		t.Fatalf("stale leaderboard %+v", board.Entries)
	}
}

func TestGetLeaderboard_SaveDuringLoadIsNotCachedStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cache := database.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	defer cache.Close()

	leaderboard := NewLeaderboardService(f.db, cache)
	submissions := NewSubmissionService(f.db, cache, f.submissions.executor, nil, time.Second).WithClock(newStepClock().Now)
	teams := createTeams(t, f.db, "Alpha", "Bravo")
	q, _ := f.questions.Create(ctx, multiplyByFifty())
	if _, err := submissions.Save(ctx, teams[0].ID, q.ID, result(2, 3)); err != nil {
		t.Fatalf("save: %v", err)
	}

	pause := pauseEntriesQuery(t, f.db, false)
	inFlight := make(chan *QuestionLeaderboard, 1)
	go func() {
		board, _ := leaderboard.GetLeaderboard(ctx, q.ID)
		inFlight <- board
	}()
	pause.wait(t)

	// Bravo's save commits and invalidates after the reader loaded its rows
	if _, err := submissions.Save(ctx, teams[1].ID, q.ID, result(3, 3)); err != nil {
		t.Fatalf("save: %v", err)
	}
	close(pause.release)
	if board := <-inFlight; board == nil || len(board.Entries) != 1 {
		t.Fatalf("in-flight read should return the board it loaded, got %+v", board)
	}
	if mr.Exists(LeaderboardCacheKey(q.ID)) {
		t.Fatalf("a board loaded before the save must not be cached")
	}

	board, err := leaderboard.GetLeaderboard(ctx, q.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 2 || board.Entries[0].TeamName != "Bravo" {
		t.Fatalf("stale leaderboard %+v", board.Entries)
	}
}

func TestGetLeaderboard_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	cache := database.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	defer cache.Close()

	leaderboard := NewLeaderboardService(f.db, cache)
	teams := createTeams(t, f.db, "Alpha")
	q, _ := f.questions.Create(context.Background(), multiplyByFifty())
	f.submissions.Save(context.Background(), teams[0].ID, q.ID, result(3, 3))

	pause := pauseEntriesQuery(t, f.db, true)
	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		board *QuestionLeaderboard
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		board, err := leaderboard.GetLeaderboard(ctx, q.ID)
		done <- outcome{board, err}
	}()
	pause.wait(t)
	cancel()
	close(pause.release)

	got := <-done
	if got.err != nil {
		t.Fatalf("shared load failed with the first caller's context: %v", got.err)
	}
	if len(got.board.Entries) != 1 {
		t.Fatalf("unexpected board %+v", got.board)
	}
	if !mr.Exists(LeaderboardCacheKey(q.ID)) {
		t.Fatalf("completed load should be cached")
	}
}

func TestGetOverallLeaderboard_CachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cache := database.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	defer cache.Close()

	leaderboard := NewLeaderboardService(f.db, cache)
	submissions := NewSubmissionService(f.db, cache, f.submissions.executor, nil, time.Second).WithClock(newStepClock().Now)
	teams := createTeams(t, f.db, "Alpha", "Bravo")
	q, _ := f.questions.Create(ctx, multiplyByFifty())

	submissions.Save(ctx, teams[0].ID, q.ID, result(3, 3))
	rows, err := leaderboard.GetOverallLeaderboard(ctx)
	if err != nil || rows[0].TeamName != "Alpha" {
		t.Fatalf("unexpected overall %+v (%v)", rows, err)
	}
	if !mr.Exists(OverallLeaderboardCacheKey) {
		t.Fatalf("overall leaderboard was not cached")
	}

	submissions.Save(ctx, teams[1].ID, q.ID, result(3, 3))
	if mr.Exists(OverallLeaderboardCacheKey) {
		t.Fatalf("save must invalidate the overall leaderboard")
	}
	rows, _ = leaderboard.GetOverallLeaderboard(ctx)
	if rows[0].TeamName != "Alpha" || rows[1].TotalPoints != 20 {
		t.Fatalf("stale overall %+v", rows)
	}
}

func TestExport_WritesWorkbook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teams := createTeams(t, f.db, "Alpha", "Bravo")
	q, _ := f.questions.Create(ctx, multiplyByFifty())
	f.submissions.Save(ctx, teams[0].ID, q.ID, result(3, 3))
	f.submissions.Save(ctx, teams[1].ID, q.ID, result(0, 3))

	raw, name, err := f.leaderboard.Export(ctx, q.Code)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "leaderboard-Q001.xlsx" {
		t.Fatalf("unexpected file name %q", name)
	}
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("export is not a workbook: %v", err)
	}
	defer book.Close()
	rows, err := book.GetRows("Q001")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "Alpha" || rows[1][0] != "1" || rows[2][0] != "-" {
		t.Fatalf("unexpected export rows %v", rows)
	}

	raw, name, err = f.leaderboard.Export(ctx, OverallExportID)
	if err != nil || name != "leaderboard-overall.xlsx" || len(raw) == 0 {
		t.Fatalf("overall export failed: %s %v", name, err)
	}
}
