package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"code_arena/internal/common"
	"code_arena/internal/common/security"
	"code_arena/internal/domain/model"
	"code_arena/internal/domain/repository"
	"code_arena/internal/platform/cache"
)

func newAuthService(t *testing.T) (*AuthService, *security.TokenIssuer) {
	t.Helper()
	tokens := security.NewTokenIssuer([]byte("secret"), time.Hour)
	return NewAuthService(repository.NewMemoryUserRepository(), tokens, bcrypt.MinCost), tokens
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth, tokens := newAuthService(t)

	_, err := auth.Register(ctx, RegisterRequest{Email: "a@example.com", Username: "  "})
	require.ErrorIs(t, err, common.ErrBadRequest)
	require.Equal(t, "Missing required fields", common.UserMessage(err))

	resp, err := auth.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "pw", Username: "alice"})
	require.NoError(t, err)
	require.Empty(t, resp.User.HashedPassword)
	require.Equal(t, "User created successfully", resp.Message)

	tok, err := tokens.TokenAuth.Decode(resp.Token)
	require.NoError(t, err)
	claims, err := tok.AsMap(ctx)
	require.NoError(t, err)
	user, err := security.AuthUserFromClaims(claims)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, user.UserID)
	require.Equal(t, "alice", user.Username)

	_, err = auth.Register(ctx, RegisterRequest{Email: "b@example.com", Password: "pw", Username: "alice"})
	require.ErrorIs(t, err, common.ErrConflict)

	_, err = auth.Login(ctx, LoginRequest{Email: "a@example.com", Password: "nope"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	require.Equal(t, "Invalid credentials", common.UserMessage(err))

	login, err := auth.Login(ctx, LoginRequest{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "Login successful", login.Message)

	me, err := auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", me.Email)
	require.Empty(t, me.HashedPassword)

	_, err = auth.Me(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

type countingProblems struct {
	repository.ProblemRepository
	byID   atomic.Int32
	custom atomic.Int32
}

func (c *countingProblems) FindProblemByID(ctx context.Context, id int64) (*model.Problem, error) {
	c.byID.Add(1)
	return c.ProblemRepository.FindProblemByID(ctx, id)
}

func (c *countingProblems) ListCustomProblems(ctx context.Context) ([]model.Problem, error) {
	c.custom.Add(1)
	return c.ProblemRepository.ListCustomProblems(ctx)
}

func TestProblemServiceCachesReads(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	repo := &countingProblems{ProblemRepository: repository.NewMemoryProblemRepository(nil)}
	svc := NewProblemService(repo, cache.NewProblemCache(rdb, time.Minute))
	author := &model.AuthUser{UserID: "u1", Username: "bob"}

	created, err := svc.CreateProblem(ctx, author, CreateProblemRequest{
		Title: "Sum It", Description: "d", Difficulty: "HARD", Category: "Math",
		TestCases: []model.TestCase{{Input: "1", ExpectedOutput: "1"}},
	})
	require.NoError(t, err)
	require.Equal(t, model.DifficultyHard, created.Difficulty)
	require.Equal(t, "sum-it", created.Slug)

	for i := 0; i < 3; i++ {
		p, err := svc.GetProblem(ctx, "1")
		require.NoError(t, err)
		require.Equal(t, "Sum It", p.Title)
	}
	require.EqualValues(t, 1, repo.byID.Load())

	for i := 0; i < 2; i++ {
		list, err := svc.ListCustomProblems(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
	require.EqualValues(t, 1, repo.custom.Load())

	_, err = svc.CreateProblem(ctx, author, CreateProblemRequest{Title: "Second", Description: "d", Difficulty: "easy", Category: "Math"})
	require.NoError(t, err)
	list, err := svc.ListCustomProblems(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Second", list[0].Title)
	require.EqualValues(t, 2, repo.custom.Load())
}

func TestProblemServiceValidationAndLookup(t *testing.T) {
	ctx := context.Background()
	svc := NewProblemService(repository.NewMemoryProblemRepository(nil), nil)
	author := &model.AuthUser{UserID: "u1", Username: "bob"}

	_, err := svc.CreateProblem(ctx, author, CreateProblemRequest{Title: "x", Description: "d", Difficulty: "Easy"})
	require.ErrorIs(t, err, common.ErrBadRequest)

	_, err = svc.CreateProblem(ctx, author, CreateProblemRequest{Title: "x", Description: "d", Difficulty: "Trivial", Category: "c"})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.GetProblem(ctx, "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
	require.Equal(t, "Problem not found", common.UserMessage(err))

	for _, c := range []string{"Graph", "Array", "Graph"} {
		_, err := svc.CreateProblem(ctx, author, CreateProblemRequest{Title: c + " one", Description: "d", Difficulty: "Easy", Category: c})
		require.NoError(t, err)
	}
	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Array", "Graph"}, categories)

	page, total, err := svc.ListProblems(ctx, ListProblemsQuery{PageSize: 2, Page: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page, 1)

	huge, total, err := svc.ListProblems(ctx, ListProblemsQuery{PageSize: MaxPageSize, Page: math.MaxInt})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Empty(t, huge)
}

func TestListProblemsQueryPaging(t *testing.T) {
	_, _, ok := ListProblemsQuery{Page: 3}.Paging()
	require.False(t, ok)

	page, size, ok := ListProblemsQuery{Page: -4, PageSize: 500}.Paging()
	require.True(t, ok)
	require.Equal(t, 1, page)
	require.Equal(t, MaxPageSize, size)

	page, _, _ = ListProblemsQuery{Page: math.MaxInt, PageSize: 10}.Paging()
	require.Equal(t, MaxPage, page)
}

func TestMockRunnerRanges(t *testing.T) {
	runner := NewMockRunner(rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 200; i++ {
		res, err := runner.RunCase(context.Background(), "go", "code", model.TestCase{Input: "in", ExpectedOutput: "out"})
		require.NoError(t, err)
		require.True(t, res.Passed)
		require.Equal(t, "out", res.ActualOutput)
		require.GreaterOrEqual(t, res.ExecutionTime, 10)
		require.LessOrEqual(t, res.ExecutionTime, 110)
		require.GreaterOrEqual(t, res.MemoryUsed, 10)
		require.LessOrEqual(t, res.MemoryUsed, 60)
	}
}

type failingRunner struct{ failAt string }

func (f failingRunner) RunCase(_ context.Context, _, _ string, tc model.TestCase) (model.TestResult, error) {
	if tc.Input == f.failAt {
		return model.TestResult{}, errors.New("boom")
	}
	return model.TestResult{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, ActualOutput: "wrong", MemoryUsed: 3, ExecutionTime: 5}, nil
}

func TestExecutionServiceRunKeepsOrder(t *testing.T) {
	svc := NewExecutionService(NewMockRunner(nil), nil, 3)
	var cases []model.TestCase
	for i := 0; i < 50; i++ {
		b, _ := json.Marshal(i)
		cases = append(cases, model.TestCase{Input: string(b), ExpectedOutput: string(b)})
	}

	res, err := svc.Run(context.Background(), RunRequest{Code: "c", Language: "go", TestCases: cases})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Results, 50)
	for i, r := range res.Results {
		require.Equal(t, cases[i].Input, r.Input)
	}
	require.Equal(t, 50, res.Summary.PassedTests)
	require.Zero(t, res.Summary.FailedTests)

	_, err = svc.Run(context.Background(), RunRequest{Code: "c", Language: "go"})
	require.ErrorIs(t, err, common.ErrBadRequest)
	require.Equal(t, "Missing required fields: code, language, testCases", common.UserMessage(err))

	blank, err := svc.Run(context.Background(), RunRequest{Code: " ", Language: " ", TestCases: cases[:1]})
	require.NoError(t, err)
	require.Len(t, blank.Results, 1)
}

func TestExecutionServiceSubmit(t *testing.T) {
	ctx := context.Background()
	problems := NewProblemService(repository.NewMemoryProblemRepository(nil), nil)
	_, err := problems.CreateProblem(ctx, &model.AuthUser{UserID: "u"}, CreateProblemRequest{
		Title: "P", Description: "d", Difficulty: "Easy", Category: "c",
		TestCases: []model.TestCase{{Input: "a", ExpectedOutput: "b"}, {Input: "c", ExpectedOutput: "d"}, {Input: "e", ExpectedOutput: "f"}},
	})
	require.NoError(t, err)

	svc := NewExecutionService(NewMockRunner(nil), problems, 0)
	res, err := svc.Submit(ctx, SubmitRequest{Code: "c", Language: "go", ProblemID: "1"})
	require.NoError(t, err)
	require.Equal(t, "1", res.ProblemID)
	require.Len(t, res.Results, 3)
	require.True(t, res.Summary.AllPassed)
	require.Equal(t, model.VerdictAccepted, res.Summary.Status)

	res, err = svc.Submit(ctx, SubmitRequest{Code: "c", Language: "go", ProblemID: "p", TestCases: []model.TestCase{{Input: "x", ExpectedOutput: "y"}}})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	_, err = svc.Submit(ctx, SubmitRequest{Code: "c", Language: "go", ProblemID: "42"})
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.Submit(ctx, SubmitRequest{Code: "c", Language: "go"})
	require.ErrorIs(t, err, common.ErrBadRequest)

	wrong := NewExecutionService(failingRunner{}, problems, 2)
	res, err = wrong.Submit(ctx, SubmitRequest{Code: "c", Language: "go", ProblemID: "1"})
	require.NoError(t, err)
	require.False(t, res.Summary.AllPassed)
	require.Equal(t, model.VerdictWrongAnswer, res.Summary.Status)
	require.Equal(t, 15, res.Summary.TotalExecutionTime)

	broken := NewExecutionService(failingRunner{failAt: "c"}, problems, 2)
	_, err = broken.Submit(ctx, SubmitRequest{Code: "c", Language: "go", ProblemID: "1"})
	require.Error(t, err)
}

func TestProblemRefAcceptsStringOrNumber(t *testing.T) {
	var req SubmitRequest
	require.NoError(t, json.Unmarshal([]byte(`{"problemId": 12}`), &req))
	require.Equal(t, ProblemRef("12"), req.ProblemID)
	require.NoError(t, json.Unmarshal([]byte(`{"problemId": "two-sum"}`), &req))
	require.Equal(t, ProblemRef("two-sum"), req.ProblemID)
	require.Error(t, json.Unmarshal([]byte(`{"problemId": {}}`), &req))
}

func TestHealthServiceTestDB(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewHealthService(store)

	report, err := svc.TestDB(ctx)
	require.NoError(t, err)
	require.True(t, report.Success)
	require.Nil(t, report.SampleProblem)
	require.Zero(t, report.Stats.ProblemCount)

	store.Ping = func(context.Context) error { return errors.New("down") }
	_, err = svc.TestDB(ctx)
	require.Error(t, err)
}
