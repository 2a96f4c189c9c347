package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"codewhisperer/database"
	"codewhisperer/metrics"
	"codewhisperer/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var questionCodePattern = regexp.MustCompile(`^Q\d{3,}$`)

// TestCaseInput is a test case as sent by the admin dashboard or the seed script
type TestCaseInput struct {
	Input     string `json:"input"`
	Expected  string `json:"expected"`
	IsVisible bool   `json:"is_visible"`
}

// QuestionInput is the payload of question.create
type QuestionInput struct {
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Difficulty           string          `json:"difficulty"`
	StartTime            *time.Time      `json:"start_time"`
	EndTime              *time.Time      `json:"end_time"`
	WinnerPoints         int             `json:"winner_points"`
	RunnerUpPoints       int             `json:"runner_up_points"`
	SecondRunnerUpPoints int             `json:"second_runner_up_points"`
	ParticipantPoints    int             `json:"participant_points"`
	TestCases            []TestCaseInput `json:"test_cases"`
}

func (in QuestionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Difficulty, validation.In(models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard)),
		validation.Field(&in.WinnerPoints, validation.Min(0)),
		validation.Field(&in.RunnerUpPoints, validation.Min(0), validation.Max(in.WinnerPoints)),
		validation.Field(&in.SecondRunnerUpPoints, validation.Min(0), validation.Max(in.RunnerUpPoints)),
		validation.Field(&in.ParticipantPoints, validation.Min(0), validation.Max(in.SecondRunnerUpPoints)),
		validation.Field(&in.EndTime, validation.By(endsAfter(in.StartTime))),
		validation.Field(&in.TestCases, validation.Required.Error("at least one test case is required")),
	)
}

// UpdateQuestionInput is the payload of question.update; nil fields are left untouched
// and a non-nil TestCases replaces every test case of the question
type UpdateQuestionInput struct {
	Title                *string          `json:"title"`
	Description          *string          `json:"description"`
	Difficulty           *string          `json:"difficulty"`
	StartTime            *time.Time       `json:"start_time"`
	EndTime              *time.Time       `json:"end_time"`
	WinnerPoints         *int             `json:"winner_points"`
	RunnerUpPoints       *int             `json:"runner_up_points"`
	SecondRunnerUpPoints *int             `json:"second_runner_up_points"`
	ParticipantPoints    *int             `json:"participant_points"`
	TestCases            *[]TestCaseInput `json:"test_cases"`
}

func endsAfter(start *time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		end, _ := value.(*time.Time)
		if start == nil || end == nil {
			return nil
		}
		if !end.After(*start) {
			return errors.New("must be after start_time")
		}
		return nil
	}
}

// QuestionSummary is a question as listed by question.getAll
type QuestionSummary struct {
	models.Question
	TestCaseCount        int64 `json:"test_case_count"`
	VisibleTestCaseCount int64 `json:"visible_test_case_count"`
}

type QuestionService struct {
	db            *gorm.DB
	cache         *database.Cache
	images        ImageStore
	notifier      Notifier
	notifyTimeout time.Duration
}

func NewQuestionService(db *gorm.DB, cache *database.Cache, images ImageStore, notifier Notifier, notifyTimeout time.Duration) *QuestionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &QuestionService{db: db, cache: cache, images: images, notifier: notifier, notifyTimeout: notifyTimeout}
}

// findQuestion accepts either a question id or its Q### code
func findQuestion(db *gorm.DB, identifier string, question *models.Question) error {
	var err error
	if questionCodePattern.MatchString(identifier) {
		err = db.First(question, "code = ?", identifier).Error
	} else {
		err = db.First(question, "id = ?", identifier).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("question %s: %w", identifier, ErrNotFound)
	}
	return err
}

func findTeam(db *gorm.DB, teamID string, team *models.Team) error {
	err := db.First(team, "id = ?", teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	return err
}

// GetAll lists every question ordered by number with its test case counts
func (s *QuestionService) GetAll(ctx context.Context) ([]QuestionSummary, error) {
	start := time.Now()
	defer metrics.RecordDBOperation("select", "questions", start)

	var questions []models.Question
	if err := s.db.WithContext(ctx).Order("number asc").Find(&questions).Error; err != nil {
		return nil, err
	}

	type count struct {
		QuestionID string
		Total      int64
		Visible    int64
	}
	var counts []count
	if err := s.db.WithContext(ctx).Model(&models.TestCase{}).
		Select("question_id, COUNT(*) AS total, SUM(CASE WHEN is_visible THEN 1 ELSE 0 END) AS visible").
		Group("question_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byQuestion := make(map[string]count, len(counts))
	for _, c := range counts {
		byQuestion[c.QuestionID] = c
	}

	summaries := make([]QuestionSummary, 0, len(questions))
	for _, q := range questions {
		c := byQuestion[q.ID]
		summaries = append(summaries, QuestionSummary{Question: q, TestCaseCount: c.Total, VisibleTestCaseCount: c.Visible})
	}
	return summaries, nil
}

// GetByID returns a question with its test cases; hidden ones only when includeHidden is set
func (s *QuestionService) GetByID(ctx context.Context, identifier string, includeHidden bool) (*models.Question, error) {
	var question models.Question
	db := s.db.WithContext(ctx).Preload("TestCases", func(tx *gorm.DB) *gorm.DB {
		if !includeHidden {
			tx = tx.Where("is_visible = ?", true)
		}
		return tx.Order("id asc")
	})
	if err := findQuestion(db, identifier, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

// Create allocates the next question number and stores the question with its test cases
func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (*models.Question, error) {
	if in.Difficulty == "" {
		in.Difficulty = models.DifficultyEasy
	}
	if err := in.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	var question models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.Question{}).Select("COALESCE(MAX(number), 0)").Scan(&last).Error; err != nil {
			return err
		}

		question = models.Question{
			Number:               last + 1,
			Code:                 models.QuestionCode(last + 1),
			Slug:                 slug.Make(in.Title),
			Title:                in.Title,
			Description:          in.Description,
			Difficulty:           in.Difficulty,
			StartTime:            in.StartTime,
			EndTime:              in.EndTime,
			WinnerPoints:         in.WinnerPoints,
			RunnerUpPoints:       in.RunnerUpPoints,
			SecondRunnerUpPoints: in.SecondRunnerUpPoints,
			ParticipantPoints:    in.ParticipantPoints,
			TestCases:            toTestCases(in.TestCases),
		}
		return tx.Create(&question).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return &question, nil
}

func toTestCases(inputs []TestCaseInput) []models.TestCase {
	cases := make([]models.TestCase, 0, len(inputs))
	for _, in := range inputs {
		cases = append(cases, models.TestCase{Input: in.Input, Expected: in.Expected, IsVisible: in.IsVisible})
	}
	return cases
}

// Update applies the non-nil fields and optionally replaces the test cases
func (s *QuestionService) Update(ctx context.Context, identifier string, in UpdateQuestionInput) (*models.Question, error) {
	var question models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findQuestion(tx, identifier, &question); err != nil {
			return err
		}

		merged := QuestionInput{
			Title:                pick(in.Title, question.Title),
			Description:          pick(in.Description, question.Description),
			Difficulty:           pick(in.Difficulty, question.Difficulty),
			StartTime:            question.StartTime,
			EndTime:              question.EndTime,
			WinnerPoints:         pick(in.WinnerPoints, question.WinnerPoints),
			RunnerUpPoints:       pick(in.RunnerUpPoints, question.RunnerUpPoints),
			SecondRunnerUpPoints: pick(in.SecondRunnerUpPoints, question.SecondRunnerUpPoints),
			ParticipantPoints:    pick(in.ParticipantPoints, question.ParticipantPoints),
			TestCases:            []TestCaseInput{{}},
		}
		if in.StartTime != nil {
			merged.StartTime = in.StartTime
		}
		if in.EndTime != nil {
			merged.EndTime = in.EndTime
		}
		if in.TestCases != nil {
			merged.TestCases = *in.TestCases
		}
		if err := merged.Validate(); err != nil {
			return newValidationError(err)
		}

		question.Title = merged.Title
		question.Slug = slug.Make(merged.Title)
		question.Description = merged.Description
		question.Difficulty = merged.Difficulty
		question.StartTime = merged.StartTime
		question.EndTime = merged.EndTime
		question.WinnerPoints = merged.WinnerPoints
		question.RunnerUpPoints = merged.RunnerUpPoints
		question.SecondRunnerUpPoints = merged.SecondRunnerUpPoints
		question.ParticipantPoints = merged.ParticipantPoints
		if err := tx.Omit("TestCases", "Teams", "Submissions", "LeaderboardEntries").Save(&question).Error; err != nil {
			return err
		}

		if in.TestCases != nil {
			if err := tx.Where("question_id = ?", question.ID).Delete(&models.TestCase{}).Error; err != nil {
				return err
			}
			cases := toTestCases(*in.TestCases)
			for i := range cases {
				cases[i].QuestionID = question.ID
			}
			if err := tx.Create(&cases).Error; err != nil {
				return err
			}
		}
		return tx.Preload("TestCases", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
			First(&question, "id = ?", question.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, question.ID)
	return &question, nil
}

func pick[T any](value *T, fallback T) T {
	if value != nil {
		return *value
	}
	return fallback
}

// Delete removes the question and everything attached to it
func (s *QuestionService) Delete(ctx context.Context, identifier string) error {
	var question models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findQuestion(tx, identifier, &question); err != nil {
			return err
		}
		if err := wipeResults(tx, question.ID); err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.TestCase{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&question).Association("Teams").Clear(); err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, question.ID)
	notifyAsync(s.notifier, s.notifyTimeout, question.Code)
	return nil
}

// Reset wipes submissions and leaderboard entries but keeps the question
func (s *QuestionService) Reset(ctx context.Context, identifier string) error {
	var question models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findQuestion(tx, identifier, &question); err != nil {
			return err
		}
		return wipeResults(tx, question.ID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, question.ID)
	notifyAsync(s.notifier, s.notifyTimeout, question.Code)
	return nil
}

func wipeResults(tx *gorm.DB, questionID string) error {
	if err := tx.Where("question_id = ?", questionID).Delete(&models.LeaderboardEntry{}).Error; err != nil {
		return err
	}
	return tx.Where("question_id = ?", questionID).Delete(&models.Submission{}).Error
}

// Select adds the question to the team's unlocked set; selecting twice is a no-op
func (s *QuestionService) Select(ctx context.Context, teamID, identifier string) (*models.Question, error) {
	var team models.Team
	var question models.Question
	db := s.db.WithContext(ctx)
	if err := findTeam(db, teamID, &team); err != nil {
		return nil, err
	}
	if err := findQuestion(db, identifier, &question); err != nil {
		return nil, err
	}
	if err := db.Model(&team).Association("Questions").Append(&question); err != nil {
		return nil, fmt.Errorf("failed to select question: %w", err)
	}
	return &question, nil
}

// SelectedByTeam lists the questions a team has unlocked
func (s *QuestionService) SelectedByTeam(ctx context.Context, teamID string) ([]models.Question, error) {
	var team models.Team
	db := s.db.WithContext(ctx)
	if err := findTeam(db, teamID, &team); err != nil {
		return nil, err
	}
	var questions []models.Question
	if err := db.Model(&team).Order("number asc").Association("Questions").Find(&questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// UploadImage stores an illustration for the question and records its URL
func (s *QuestionService) UploadImage(ctx context.Context, identifier, filename, contentType string, size int64, body io.Reader) (*models.Question, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	var question models.Question
	if err := findQuestion(s.db.WithContext(ctx), identifier, &question); err != nil {
		return nil, err
	}
	url, err := s.images.PutImage(ctx, question.Code, filename, contentType, size, body)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&question).Update("image_url", url).Error; err != nil {
		return nil, err
	}
	question.ImageURL = url
	return &question, nil
}

func (s *QuestionService) invalidate(ctx context.Context, questionID string) {
	_ = s.cache.Invalidate(ctx, LeaderboardCacheKey(questionID), OverallLeaderboardCacheKey)
}
