package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/text/cases"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
)

// DriverMemory is the Store.Driver of the in-process backend.
const DriverMemory = "memory"

// NewMemoryStore returns an empty in-process store. It is safe for concurrent
// use and loses everything on restart.
func NewMemoryStore() *Store {
	users := NewMemoryUserRepository()
	return &Store{
		Driver:   DriverMemory,
		Users:    users,
		Problems: NewMemoryProblemRepository(users),
		Ping:     func(context.Context) error { return nil },
	}
}

type memoryUserRepository struct {
	byID      *xsync.MapOf[string, model.User]
	emails    *xsync.MapOf[string, string]
	usernames *xsync.MapOf[string, string]
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:      xsync.NewMapOf[string, model.User](),
		emails:    xsync.NewMapOf[string, string](),
		usernames: xsync.NewMapOf[string, string](),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	conflict := fmt.Errorf("User with this email or username already exists: %w", common.ErrConflict)

	if _, loaded := r.emails.LoadOrStore(user.Email, user.ID); loaded {
		return conflict
	}
	if _, loaded := r.usernames.LoadOrStore(user.Username, user.ID); loaded {
		r.emails.Delete(user.Email)
		return conflict
	}
	if _, loaded := r.byID.LoadOrStore(user.ID, *user); loaded {
		r.emails.Delete(user.Email)
		r.usernames.Delete(user.Username)
		return conflict
	}
	return nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	id, ok := r.emails.Load(email)
	if !ok {
		return nil, common.ErrNotFound
	}
	user, ok := r.byID.Load(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	user, ok := r.byID.Load(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	if _, ok := r.emails.Load(email); ok {
		return true, nil
	}
	_, ok := r.usernames.Load(username)
	return ok, nil
}

func (r *memoryUserRepository) Count(context.Context) (int, error) {
	return r.byID.Size(), nil
}

type memoryProblemRepository struct {
	problems *xsync.MapOf[int64, model.Problem]
	users    UserRepository
	nextID   atomic.Int64
	childID  atomic.Int64
}

// NewMemoryProblemRepository resolves author usernames through users, which
// may be nil.
func NewMemoryProblemRepository(users UserRepository) ProblemRepository {
	return &memoryProblemRepository{
		problems: xsync.NewMapOf[int64, model.Problem](),
		users:    users,
	}
}

func (r *memoryProblemRepository) CreateProblem(_ context.Context, p *model.Problem) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.ID = r.nextID.Add(1)
	for i := range p.Examples {
		p.Examples[i].ID = r.childID.Add(1)
		p.Examples[i].ProblemID = p.ID
	}
	for i := range p.Constraints {
		p.Constraints[i].ID = r.childID.Add(1)
		p.Constraints[i].ProblemID = p.ID
	}
	for i := range p.TestCases {
		p.TestCases[i].ID = r.childID.Add(1)
		p.TestCases[i].ProblemID = p.ID
	}
	r.problems.Store(p.ID, cloneProblem(*p))
	return nil
}

func (r *memoryProblemRepository) FindProblemByID(ctx context.Context, id int64) (*model.Problem, error) {
	p, ok := r.problems.Load(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.withAuthor(ctx, cloneProblem(p)), nil
}

func (r *memoryProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	var found *model.Problem
	r.problems.Range(func(_ int64, p model.Problem) bool {
		if p.Slug == slug && (found == nil || p.ID < found.ID) {
			cp := p
			found = &cp
		}
		return true
	})
	if found == nil {
		return nil, common.ErrNotFound
	}
	return r.withAuthor(ctx, cloneProblem(*found)), nil
}

func (r *memoryProblemRepository) ListProblems(ctx context.Context, filter model.ProblemFilter) ([]model.Problem, int, error) {
	difficulty := filter.DifficultyFilter()
	category := filter.CategoryFilter()
	search := foldString(strings.TrimSpace(filter.Search))

	matched := r.collect(func(p model.Problem) bool {
		if difficulty != "" && !strings.EqualFold(string(p.Difficulty), difficulty) {
			return false
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			return false
		}
		if search != "" &&
			!strings.Contains(foldString(p.Title), search) &&
			!strings.Contains(foldString(p.Description), search) {
			return false
		}
		return true
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if filter.Limit > 0 {
		start := min(max(filter.Offset, 0), total)
		end := min(start+filter.Limit, total)
		matched = matched[start:end]
	}

	out := make([]model.Problem, 0, len(matched))
	for _, p := range matched {
		out = append(out, *r.withAuthor(ctx, summary(p)))
	}
	return out, total, nil
}

func (r *memoryProblemRepository) ListCustomProblems(ctx context.Context) ([]model.Problem, error) {
	custom := r.collect(func(p model.Problem) bool { return p.IsCustom })
	sort.Slice(custom, func(i, j int) bool {
		if !custom[i].CreatedAt.Equal(custom[j].CreatedAt) {
			return custom[i].CreatedAt.After(custom[j].CreatedAt)
		}
		return custom[i].ID > custom[j].ID
	})

	out := make([]model.Problem, 0, len(custom))
	for _, p := range custom {
		out = append(out, *r.withAuthor(ctx, summary(p)))
	}
	return out, nil
}

func (r *memoryProblemRepository) GetTestCasesByProblemID(_ context.Context, problemID int64) ([]model.TestCase, error) {
	p, ok := r.problems.Load(problemID)
	if !ok {
		return []model.TestCase{}, nil
	}
	return append([]model.TestCase{}, p.TestCases...), nil
}

func (r *memoryProblemRepository) CountProblems(context.Context) (int, error) {
	return r.problems.Size(), nil
}

func (r *memoryProblemRepository) FirstProblem(ctx context.Context) (*model.Problem, error) {
	var first *model.Problem
	r.problems.Range(func(_ int64, p model.Problem) bool {
		if first == nil || p.ID < first.ID {
			cp := p
			first = &cp
		}
		return true
	})
	if first == nil {
		return nil, common.ErrNotFound
	}
	return r.withAuthor(ctx, cloneProblem(*first)), nil
}

func (r *memoryProblemRepository) collect(keep func(model.Problem) bool) []model.Problem {
	var out []model.Problem
	r.problems.Range(func(_ int64, p model.Problem) bool {
		if keep(p) {
			out = append(out, p)
		}
		return true
	})
	return out
}

func (r *memoryProblemRepository) withAuthor(ctx context.Context, p model.Problem) *model.Problem {
	if p.CreatedBy != nil && r.users != nil {
		if u, err := r.users.FindByID(ctx, *p.CreatedBy); err == nil {
			p.User = &model.ProblemAuthor{Username: u.Username}
		}
	}
	return &p
}

func cloneProblem(p model.Problem) model.Problem {
	p.Examples = append([]model.Example{}, p.Examples...)
	p.Constraints = append([]model.Constraint{}, p.Constraints...)
	p.TestCases = append([]model.TestCase{}, p.TestCases...)
	if p.CreatedBy != nil {
		id := *p.CreatedBy
		p.CreatedBy = &id
	}
	p.User = nil
	return p
}

// summary drops relations, matching what list queries return.
func summary(p model.Problem) model.Problem {
	p.Examples = nil
	p.Constraints = nil
	p.TestCases = nil
	if p.CreatedBy != nil {
		id := *p.CreatedBy
		p.CreatedBy = &id
	}
	p.User = nil
	return p
}

func foldString(s string) string {
	return cases.Fold().String(s)
}
