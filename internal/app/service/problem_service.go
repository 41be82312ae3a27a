package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/domain/repository"
	"code_arena/internal/platform/cache"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gosimple/slug" // For slug generation
	"github.com/rs/zerolog/log"
)

const (
	MaxPageSize = 100
	MaxPage     = 1_000_000
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	cache       *cache.ProblemCache // nil disables caching
}

func NewProblemService(problemRepo repository.ProblemRepository, problemCache *cache.ProblemCache) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		cache:       problemCache,
	}
}

type CreateProblemRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Difficulty  string           `json:"difficulty"`
	Category    string           `json:"category"`
	Examples    []model.Example  `json:"examples"`
	Constraints []string         `json:"constraints"`
	TestCases   []model.TestCase `json:"testCases"`
}

type ListProblemsQuery struct {
	Difficulty string
	Category   string
	Search     string
	Page       int
	PageSize   int // 0 returns every match
}

// Paging returns the clamped page and page size. ok is false when the
// query asks for every match.
func (q ListProblemsQuery) Paging() (page, pageSize int, ok bool) {
	if q.PageSize <= 0 {
		return 0, 0, false
	}
	return min(max(q.Page, 1), MaxPage), min(q.PageSize, MaxPageSize), true
}

func (s *ProblemService) CreateProblem(ctx context.Context, author *model.AuthUser, req CreateProblemRequest) (*model.Problem, error) {
	title := strings.TrimSpace(req.Title)
	category := strings.TrimSpace(req.Category)
	if title == "" || strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.Difficulty) == "" || category == "" {
		return nil, common.Errorf("Missing required fields: %w", common.ErrBadRequest)
	}
	difficulty, ok := model.ParseDifficulty(req.Difficulty)
	if !ok {
		return nil, common.Errorf("Difficulty must be Easy, Medium or Hard: %w", common.ErrValidation)
	}

	problem := &model.Problem{
		Title:           title,
		Slug:            slug.Make(title),
		Description:     req.Description,
		Difficulty:      difficulty,
		Category:        category,
		Acceptance:      "0%",
		SubmissionCount: "0",
		Likes:           0,
		Dislikes:        0,
		CreatedBy:       &author.UserID,
		IsCustom:        true,
		CreatedAt:       time.Now().UTC(),
	}
	for _, ex := range req.Examples {
		problem.Examples = append(problem.Examples, model.Example{Input: ex.Input, Output: ex.Output, Explanation: ex.Explanation})
	}
	for _, text := range req.Constraints {
		problem.Constraints = append(problem.Constraints, model.Constraint{Text: text})
	}
	for _, tc := range req.TestCases {
		problem.TestCases = append(problem.TestCases, model.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}

	if err := s.problemRepo.CreateProblem(ctx, problem); err != nil {
		return nil, common.Errorf("failed to create problem in DB: %w", err)
	}
	s.cache.InvalidateCustomProblems(ctx)

	problem.User = &model.ProblemAuthor{Username: author.Username}
	log.Info().Int64("problem_id", problem.ID).Str("slug", problem.Slug).Str("user_id", author.UserID).Msg("Custom problem created")
	return problem, nil
}

// GetProblem resolves a numeric id or, failing that, a slug.
func (s *ProblemService) GetProblem(ctx context.Context, idOrSlug string) (*model.Problem, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, common.Errorf("Problem not found: %w", common.ErrNotFound)
	}

	var (
		problem *model.Problem
		err     error
	)
	if id, convErr := strconv.ParseInt(idOrSlug, 10, 64); convErr == nil {
		if cached, _ := s.cache.GetProblem(ctx, id); cached != nil {
			return cached, nil
		}
		problem, err = s.problemRepo.FindProblemByID(ctx, id)
	} else {
		problem, err = s.problemRepo.FindProblemBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("Problem not found: %w", common.ErrNotFound)
		}
		return nil, common.Errorf("failed to get problem: %w", err)
	}

	s.cache.SetProblem(ctx, problem)
	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, q ListProblemsQuery) ([]model.Problem, int, error) {
	filter := model.ProblemFilter{
		Difficulty: q.Difficulty,
		Category:   q.Category,
		Search:     q.Search,
	}
	if page, pageSize, ok := q.Paging(); ok {
		filter.Limit = pageSize
		filter.Offset = (page - 1) * pageSize
	}

	problems, total, err := s.problemRepo.ListProblems(ctx, filter)
	if err != nil {
		return nil, 0, common.Errorf("failed to list problems: %w", err)
	}
	return problems, total, nil
}

// ListCustomProblems returns user-created problems, newest first.
func (s *ProblemService) ListCustomProblems(ctx context.Context) ([]model.Problem, error) {
	if cached, _ := s.cache.GetCustomProblems(ctx); cached != nil {
		return cached, nil
	}
	problems, err := s.problemRepo.ListCustomProblems(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list custom problems: %w", err)
	}
	s.cache.SetCustomProblems(ctx, problems)
	return problems, nil
}

// Categories returns the distinct categories in use, sorted.
func (s *ProblemService) Categories(ctx context.Context) ([]string, error) {
	problems, _, err := s.problemRepo.ListProblems(ctx, model.ProblemFilter{})
	if err != nil {
		return nil, common.Errorf("failed to list problems: %w", err)
	}
	set := mapset.NewSet[string]()
	for _, p := range problems {
		set.Add(p.Category)
	}
	categories := set.ToSlice()
	sort.Strings(categories)
	return categories, nil
}

// TestCasesFor returns the stored test cases of a problem id or slug.
func (s *ProblemService) TestCasesFor(ctx context.Context, idOrSlug string) ([]model.TestCase, error) {
	problem, err := s.GetProblem(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if len(problem.TestCases) > 0 {
		return problem.TestCases, nil
	}
	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problem.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}
	return testCases, nil
}
