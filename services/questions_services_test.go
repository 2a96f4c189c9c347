package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"codewhisperer/models"
)

func TestCreate_AllocatesNumbersAndCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.questions.Create(ctx, multiplyByFifty())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	in := multiplyByFifty()
	in.Title = "Reverse the Words"
	second, err := f.questions.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.Code != "Q001" || second.Code != "Q002" || second.Number != 2 {
		t.Fatalf("unexpected codes %s (%d) and %s (%d)", first.Code, first.Number, second.Code, second.Number)
	}
	if second.Slug != "reverse-the-words" {
		t.Fatalf("unexpected slug %q", second.Slug)
	}
	if first.Difficulty != models.DifficultyEasy {
		t.Fatalf("difficulty should default to EASY, got %q", first.Difficulty)
	}
}

func TestCreate_RejectsInvalidPayloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	cases := map[string]func(*QuestionInput){
		"no title":        func(in *QuestionInput) { in.Title = "" },
		"no test cases":   func(in *QuestionInput) { in.TestCases = nil },
		"unordered tiers": func(in *QuestionInput) { in.RunnerUpPoints = 50 },
		"bad difficulty":  func(in *QuestionInput) { in.Difficulty = "EXTREME" },
		"ends before start": func(in *QuestionInput) {
			in.StartTime = &start
			in.EndTime = &before
		},
	}
	for name, mutate := range cases {
		in := multiplyByFifty()
		mutate(&in)
		_, err := f.questions.Create(ctx, in)
		var verr *ValidationError
		if !errors.As(err, &verr) || len(verr.Fields) == 0 {
			t.Fatalf("%s: expected a validation error, got %v", name, err)
		}
	}
}

func TestGetByID_HidesHiddenCasesFromTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, _ := f.questions.Create(ctx, multiplyByFifty())

	visible, err := f.questions.GetByID(ctx, q.Code, false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(visible.TestCases) != 1 || !visible.TestCases[0].IsVisible {
		t.Fatalf("team view should carry only the visible case, got %+v", visible.TestCases)
	}
	all, _ := f.questions.GetByID(ctx, q.ID, true)
	if len(all.TestCases) != 3 {
		t.Fatalf("admin view should carry every case, got %d", len(all.TestCases))
	}

	if _, err := f.questions.GetByID(ctx, "Q404", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetAll_CountsTestCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.questions.Create(ctx, multiplyByFifty())
	in := multiplyByFifty()
	in.TestCases = in.TestCases[:1]
	f.questions.Create(ctx, in)

	list, err := f.questions.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(list) != 2 || list[0].Code != "Q001" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].TestCaseCount != 3 || list[0].VisibleTestCaseCount != 1 || list[1].TestCaseCount != 1 {
		t.Fatalf("unexpected counts %+v / %+v", list[0], list[1])
	}
}

func TestUpdate_ReplacesTestCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, _ := f.questions.Create(ctx, multiplyByFifty())

	title := "Multiply by fifty"
	cases := []TestCaseInput{{Input: "1", Expected: "50", IsVisible: true}}
	updated, err := f.questions.Update(ctx, q.ID, UpdateQuestionInput{Title: &title, TestCases: &cases})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.Slug != "multiply-by-fifty" || len(updated.TestCases) != 1 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.WinnerPoints != 30 {
		t.Fatalf("untouched fields must be kept, got winner points %d", updated.WinnerPoints)
	}
	if n := f.count(t, &models.TestCase{}, "question_id = ?", q.ID); n != 1 {
		t.Fatalf("expected 1 stored test case, got %d", n)
	}

	tooMany := 99
	if _, err := f.questions.Update(ctx, q.ID, UpdateQuestionInput{ParticipantPoints: &tooMany}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDelete_RemovesEverythingAttached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teams := createTeams(t, f.db, "Team 1", "Team 2")
	q, _ := f.questions.Create(ctx, multiplyByFifty())
	other, _ := f.questions.Create(ctx, multiplyByFifty())

	for _, team := range teams {
		if _, err := f.questions.Select(ctx, team.ID, q.Code); err != nil {
			t.Fatalf("select: %v", err)
		}
		f.questions.Select(ctx, team.ID, other.Code)
		if _, err := f.submissions.Save(ctx, team.ID, q.ID, result(2, 3)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if err := f.questions.Delete(ctx, q.Code); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.questions.GetByID(ctx, q.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted question still readable: %v", err)
	}
	for model, name := range map[interface{}]string{
		&models.TestCase{}:         "test cases",
		&models.Submission{}:       "submissions",
		&models.LeaderboardEntry{}: "leaderboard entries",
	} {
		if n := f.count(t, model, "question_id = ?", q.ID); n != 0 {
			t.Fatalf("%d %s left behind", n, name)
		}
	}
	var links int64
	f.db.Table("team_questions").Where("question_id = ?", q.ID).Count(&links)
	if links != 0 {
		t.Fatalf("%d team links left behind", links)
	}

	selected, _ := f.questions.SelectedByTeam(ctx, teams[0].ID)
	if len(selected) != 1 || selected[0].ID != other.ID {
		t.Fatalf("other selections must survive, got %+v", selected)
	}
	if err := f.questions.Delete(ctx, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestReset_KeepsQuestionAndTestCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := createTeams(t, f.db, "Team 1")[0]
	q, _ := f.questions.Create(ctx, multiplyByFifty())
	f.submissions.Save(ctx, team.ID, q.ID, result(3, 3))

	if err := f.questions.Reset(ctx, q.Code); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n := f.count(t, &models.Submission{}, "question_id = ?", q.ID); n != 0 {
		t.Fatalf("reset left %d submissions", n)
	}
	if n := f.count(t, &models.TestCase{}, "question_id = ?", q.ID); n != 3 {
		t.Fatalf("reset must keep test cases, got %d", n)
	}
}

func TestSelect_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := createTeams(t, f.db, "Team 1")[0]
	q, _ := f.questions.Create(ctx, multiplyByFifty())

	for i := 0; i < 3; i++ {
		if _, err := f.questions.Select(ctx, team.ID, q.ID); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
	}
	selected, err := f.questions.SelectedByTeam(ctx, team.ID)
	if err != nil || len(selected) != 1 {
		t.Fatalf("expected one selected question, got %d (%v)", len(selected), err)
	}
	if _, err := f.questions.Select(ctx, "nobody", q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown team, got %v", err)
	}
}

type memoryImages struct {
	keys []string
}

func (m *memoryImages) PutImage(ctx context.Context, questionCode, filename, contentType string, size int64, body io.Reader) (string, error) {
	key := ImageObjectKey(questionCode, filename)
	m.keys = append(m.keys, key)
	return "http://images.local/" + key, nil
}

func TestUploadImage_StoresURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, _ := f.questions.Create(ctx, multiplyByFifty())

	if _, err := f.questions.UploadImage(ctx, q.ID, "a.png", "image/png", 3, bytes.NewReader([]byte("png"))); !errors.Is(err, ErrStorageDisabled) {
		t.Fatalf("expected storage disabled, got %v", err)
	}

	images := &memoryImages{}
	svc := NewQuestionService(f.db, nil, images, nil, time.Second)
	updated, err := svc.UploadImage(ctx, q.Code, "Diagram.PNG", "image/png", 3, bytes.NewReader([]byte("png")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if updated.ImageURL != "http://images.local/"+images.keys[0] {
		t.Fatalf("unexpected image url %q", updated.ImageURL)
	}
	stored, _ := f.questions.GetByID(ctx, q.ID, false)
	if stored.ImageURL != updated.ImageURL {
		t.Fatalf("image url not persisted")
	}
}
