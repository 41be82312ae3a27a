// Package catalog holds the built-in problem set and seeds it into a store.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"code_arena/internal/common"
	"code_arena/internal/common/security"
	"code_arena/internal/domain/model"
	"code_arena/internal/domain/repository"
)

//go:embed problems.toml
var problemsTOML []byte

const (
	DemoEmail    = "test@example.com"
	DemoUsername = "testuser"
	DemoPassword = "password123"
)

type Problem struct {
	Title       string     `toml:"title"`
	Description string     `toml:"description"`
	Difficulty  string     `toml:"difficulty"`
	Category    string     `toml:"category"`
	Acceptance  string     `toml:"acceptance"`
	Constraints []string   `toml:"constraints"`
	Examples    []Example  `toml:"examples"`
	TestCases   []TestCase `toml:"test_cases"`
}

type Example struct {
	Input       string `toml:"input"`
	Output      string `toml:"output"`
	Explanation string `toml:"explanation"`
}

type TestCase struct {
	Input          string `toml:"input"`
	ExpectedOutput string `toml:"expected_output"`
}

type file struct {
	Problems []Problem `toml:"problems"`
}

// Load parses the embedded catalog.
func Load() ([]Problem, error) {
	var f file
	if err := toml.Unmarshal(problemsTOML, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, p := range f.Problems {
		if _, ok := model.ParseDifficulty(p.Difficulty); !ok {
			return nil, fmt.Errorf("catalog problem %d (%q): invalid difficulty %q", i, p.Title, p.Difficulty)
		}
	}
	return f.Problems, nil
}

// ToModel converts a catalog entry into a built-in problem owned by createdBy.
func (p Problem) ToModel(createdBy *string) *model.Problem {
	difficulty, _ := model.ParseDifficulty(p.Difficulty)
	acceptance := p.Acceptance
	if acceptance == "" {
		acceptance = "0%"
	}

	out := &model.Problem{
		Title:           p.Title,
		Slug:            slug.Make(p.Title),
		Description:     p.Description,
		Difficulty:      difficulty,
		Category:        p.Category,
		Acceptance:      acceptance,
		SubmissionCount: "0",
		CreatedBy:       createdBy,
		IsCustom:        false,
		CreatedAt:       time.Now().UTC(),
	}
	for _, ex := range p.Examples {
		out.Examples = append(out.Examples, model.Example{Input: ex.Input, Output: ex.Output, Explanation: ex.Explanation})
	}
	for _, c := range p.Constraints {
		out.Constraints = append(out.Constraints, model.Constraint{Text: c})
	}
	for _, tc := range p.TestCases {
		out.TestCases = append(out.TestCases, model.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}
	return out
}

type SeedResult struct {
	User    *model.User
	Created []string
	Skipped []string
}

// Seed makes sure the demo user and every catalog problem exist. Problems are
// matched by slug, so running it again changes nothing.
func Seed(ctx context.Context, store *repository.Store, hashCost int) (*SeedResult, error) {
	problems, err := Load()
	if err != nil {
		return nil, err
	}

	user, err := ensureDemoUser(ctx, store.Users, hashCost)
	if err != nil {
		return nil, err
	}

	res := &SeedResult{User: user}
	for _, entry := range problems {
		p := entry.ToModel(&user.ID)

		_, err := store.Problems.FindProblemBySlug(ctx, p.Slug)
		if err == nil {
			res.Skipped = append(res.Skipped, p.Title)
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("look up problem %q: %w", p.Title, err)
		}

		if err := store.Problems.CreateProblem(ctx, p); err != nil {
			return nil, fmt.Errorf("create problem %q: %w", p.Title, err)
		}
		res.Created = append(res.Created, p.Title)
		log.Debug().Str("title", p.Title).Int64("id", p.ID).Msg("Seeded problem")
	}

	log.Info().Str("driver", store.Driver).Int("created", len(res.Created)).Int("skipped", len(res.Skipped)).Msg("Catalog seeded")
	return res, nil
}

func ensureDemoUser(ctx context.Context, users repository.UserRepository, hashCost int) (*model.User, error) {
	user, err := users.FindByEmail(ctx, DemoEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("look up demo user: %w", err)
	}

	hashed, err := security.HashPassword(DemoPassword, hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	user = &model.User{
		ID:             uuid.NewString(),
		Email:          DemoEmail,
		Username:       DemoUsername,
		HashedPassword: hashed,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}
	return user, nil
}
