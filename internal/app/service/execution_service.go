package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Runner executes one test case.
type Runner interface {
	RunCase(ctx context.Context, language, code string, tc model.TestCase) (model.TestResult, error)
}

// MockRunner pretends every case passes. It reports the expected output as
// the actual output with a random 10-110 ms runtime and 10-60 MB memory.
type MockRunner struct {
	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

// NewMockRunner returns a runner drawing from rng, or from the global source
// when rng is nil.
func NewMockRunner(rng *rand.Rand) *MockRunner {
	return &MockRunner{rng: rng}
}

func (m *MockRunner) float64() float64 {
	if m.rng == nil {
		return rand.Float64()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func (m *MockRunner) RunCase(ctx context.Context, _ string, _ string, tc model.TestCase) (model.TestResult, error) {
	if err := ctx.Err(); err != nil {
		return model.TestResult{}, err
	}
	executionTime := m.float64()*100 + 10
	memoryUsed := m.float64()*50 + 10
	return model.TestResult{
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		ActualOutput:   tc.ExpectedOutput,
		Passed:         true,
		ExecutionTime:  int(math.Round(executionTime)),
		MemoryUsed:     int(math.Round(memoryUsed)),
	}, nil
}

type ExecutionService struct {
	runner      Runner
	problems    *ProblemService
	concurrency int
	now         func() time.Time
}

func NewExecutionService(runner Runner, problems *ProblemService, concurrency int) *ExecutionService {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &ExecutionService{
		runner:      runner,
		problems:    problems,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type RunRequest struct {
	Code      string           `json:"code"`
	Language  string           `json:"language"`
	TestCases []model.TestCase `json:"testCases"`
}

// ProblemRef is a problem id sent either as a JSON string or number.
type ProblemRef string

func (p *ProblemRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ProblemRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("problemId must be a string or number: %w", err)
	}
	*p = ProblemRef(n.String())
	return nil
}

type SubmitRequest struct {
	Code      string           `json:"code"`
	Language  string           `json:"language"`
	ProblemID ProblemRef       `json:"problemId"`
	TestCases []model.TestCase `json:"testCases,omitempty"`
}

func (s *ExecutionService) Run(ctx context.Context, req RunRequest) (*model.RunResult, error) {
	if req.Code == "" || req.Language == "" || len(req.TestCases) == 0 {
		return nil, common.Errorf("Missing required fields: code, language, testCases: %w", common.ErrBadRequest)
	}

	results, err := s.runAll(ctx, req.Language, req.Code, req.TestCases)
	if err != nil {
		return nil, err
	}
	return &model.RunResult{
		Success:   true,
		Language:  req.Language,
		Results:   results,
		Summary:   model.Summarize(results),
		Timestamp: s.now(),
	}, nil
}

// Submit grades code against the request's test cases, or the problem's
// stored ones when the request carries none.
func (s *ExecutionService) Submit(ctx context.Context, req SubmitRequest) (*model.SubmissionResult, error) {
	problemID := strings.TrimSpace(string(req.ProblemID))
	if req.Code == "" || req.Language == "" || problemID == "" {
		return nil, common.Errorf("Missing required fields: code, language, problemId: %w", common.ErrBadRequest)
	}

	testCases := req.TestCases
	if len(testCases) == 0 {
		stored, err := s.problems.TestCasesFor(ctx, problemID)
		if err != nil {
			return nil, err
		}
		testCases = stored
	}

	results, err := s.runAll(ctx, req.Language, req.Code, testCases)
	if err != nil {
		return nil, err
	}

	summary := model.SubmissionSummary{RunSummary: model.Summarize(results)}
	summary.AllPassed = summary.FailedTests == 0
	summary.Status = model.VerdictWrongAnswer
	if summary.AllPassed {
		summary.Status = model.VerdictAccepted
	}
	log.Info().Str("problem_id", problemID).Str("language", req.Language).Str("status", summary.Status).Int("tests", summary.TotalTests).Msg("Submission graded")

	return &model.SubmissionResult{
		Success:   true,
		ProblemID: problemID,
		Language:  req.Language,
		Results:   results,
		Summary:   summary,
		Timestamp: s.now(),
	}, nil
}

// runAll runs the cases concurrently. Results keep the order of testCases.
func (s *ExecutionService) runAll(ctx context.Context, language, code string, testCases []model.TestCase) ([]model.TestResult, error) {
	results := make([]model.TestResult, len(testCases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, tc := range testCases {
		g.Go(func() error {
			res, err := s.runner.RunCase(gctx, language, code, tc)
			if err != nil {
				return fmt.Errorf("test case %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to run test cases: %w", err)
	}
	return results, nil
}
