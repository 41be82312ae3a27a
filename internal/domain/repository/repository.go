package repository

import (
	"context"

	"code_arena/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type ProblemRepository interface {
	// CreateProblem stores the problem with its examples, constraints and test
	// cases atomically and fills in the generated ids and timestamps.
	CreateProblem(ctx context.Context, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id int64) (*model.Problem, error)
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	ListProblems(ctx context.Context, filter model.ProblemFilter) ([]model.Problem, int, error)
	ListCustomProblems(ctx context.Context) ([]model.Problem, error)
	GetTestCasesByProblemID(ctx context.Context, problemID int64) ([]model.TestCase, error)
	CountProblems(ctx context.Context) (int, error)
	FirstProblem(ctx context.Context) (*model.Problem, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Driver   string
	Users    UserRepository
	Problems ProblemRepository
	Ping     func(ctx context.Context) error
}
