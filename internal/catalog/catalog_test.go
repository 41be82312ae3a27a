package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"code_arena/internal/common/security"
	"code_arena/internal/domain/model"
	"code_arena/internal/domain/repository"
	"code_arena/internal/platform/database"
)

func TestLoad(t *testing.T) {
	problems, err := Load()
	require.NoError(t, err)
	require.Len(t, problems, 15)

	first := problems[0]
	require.Equal(t, "Two Sum", first.Title)
	require.Equal(t, "85%", first.Acceptance)
	require.Len(t, first.Examples, 2)
	require.Len(t, first.Constraints, 4)
	require.Equal(t, "[2,7,11,15]\n9", first.TestCases[0].Input)

	for _, p := range problems {
		require.NotEmpty(t, p.TestCases, p.Title)
		require.NotEmpty(t, p.Category, p.Title)
	}
}

func TestToModel(t *testing.T) {
	problems, err := Load()
	require.NoError(t, err)

	owner := "user-1"
	p := problems[6].ToModel(&owner)
	require.Equal(t, "3Sum", p.Title)
	require.Equal(t, "3sum", p.Slug)
	require.Equal(t, model.DifficultyMedium, p.Difficulty)
	require.Equal(t, "0%", p.Acceptance)
	require.Equal(t, "0", p.SubmissionCount)
	require.False(t, p.IsCustom)
	require.Equal(t, &owner, p.CreatedBy)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	stores := map[string]*repository.Store{
		"memory": repository.NewMemoryStore(),
		"sqlite": repository.NewSQLStore(db),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			res, err := Seed(ctx, store, bcrypt.MinCost)
			require.NoError(t, err)
			require.Len(t, res.Created, 15)
			require.Empty(t, res.Skipped)
			require.True(t, security.CheckPasswordHash(DemoPassword, res.User.HashedPassword))

			again, err := Seed(ctx, store, bcrypt.MinCost)
			require.NoError(t, err)
			require.Empty(t, again.Created)
			require.Len(t, again.Skipped, 15)
			require.Equal(t, res.User.ID, again.User.ID)

			n, err := store.Problems.CountProblems(ctx)
			require.NoError(t, err)
			require.Equal(t, 15, n)
			users, err := store.Users.Count(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, users)

			twoSum, err := store.Problems.FindProblemBySlug(ctx, "two-sum")
			require.NoError(t, err)
			require.Len(t, twoSum.TestCases, 2)
			require.NotNil(t, twoSum.User)
			require.Equal(t, DemoUsername, twoSum.User.Username)
		})
	}
}
