package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]ProblemDifficulty{
		"Easy":     DifficultyEasy,
		"easy":     DifficultyEasy,
		" MEDIUM ": DifficultyMedium,
		"hard":     DifficultyHard,
	} {
		got, ok := ParseDifficulty(in)
		require.True(t, ok, in)
		require.Equal(t, want, got)
	}

	_, ok := ParseDifficulty("Insane")
	require.False(t, ok)
}

func TestProblemFilterAllMeansNoFilter(t *testing.T) {
	f := ProblemFilter{Difficulty: "all", Category: "ALL"}
	require.Empty(t, f.DifficultyFilter())
	require.Empty(t, f.CategoryFilter())

	f = ProblemFilter{Difficulty: " Easy ", Category: "Array"}
	require.Equal(t, "Easy", f.DifficultyFilter())
	require.Equal(t, "Array", f.CategoryFilter())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]TestResult{
		{Passed: true, ExecutionTime: 12, MemoryUsed: 40},
		{Passed: false, ExecutionTime: 30, MemoryUsed: 15},
		{Passed: true, ExecutionTime: 8, MemoryUsed: 59},
	})
	require.Equal(t, RunSummary{
		TotalTests:         3,
		PassedTests:        2,
		FailedTests:        1,
		TotalExecutionTime: 50,
		MaxMemoryUsed:      59,
	}, s)

	require.Equal(t, RunSummary{}, Summarize(nil))
}

func TestUserJSONHidesPassword(t *testing.T) {
	b, err := json.Marshal(User{ID: "u1", Email: "a@b.c", Username: "alice", HashedPassword: "$2a$12$secret"})
	require.NoError(t, err)
	require.NotContains(t, string(b), "secret")
	require.Contains(t, string(b), `"username":"alice"`)
}
