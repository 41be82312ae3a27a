package model

import (
	"strings"
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

// ParseDifficulty accepts any casing of Easy, Medium or Hard.
func ParseDifficulty(s string) (ProblemDifficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

type Problem struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	Slug            string            `json:"slug"`
	Description     string            `json:"description"`
	Difficulty      ProblemDifficulty `json:"difficulty"`
	Category        string            `json:"category"`
	Acceptance      string            `json:"acceptance"`
	SubmissionCount string            `json:"submissionCount"`
	Likes           int               `json:"likes"`
	Dislikes        int               `json:"dislikes"`
	CreatedBy       *string           `json:"createdBy,omitempty"`
	IsCustom        bool              `json:"isCustom"`
	CreatedAt       time.Time         `json:"createdAt"`
	Examples        []Example         `json:"examples,omitempty"`
	Constraints     []Constraint      `json:"constraints,omitempty"`
	TestCases       []TestCase        `json:"testCases,omitempty"`
	User            *ProblemAuthor    `json:"user,omitempty"` // For display
}

type ProblemAuthor struct {
	Username string `json:"username"`
}

type Example struct {
	ID          int64  `json:"id"`
	ProblemID   int64  `json:"problemId"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
}

type Constraint struct {
	ID        int64  `json:"id"`
	ProblemID int64  `json:"problemId"`
	Text      string `json:"text"`
}

type TestCase struct {
	ID             int64  `json:"id,omitempty"`
	ProblemID      int64  `json:"problemId,omitempty"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// ProblemFilter narrows ListProblems. Empty fields (and "all") match everything.
type ProblemFilter struct {
	Difficulty string
	Category   string
	Search     string
	Limit      int // 0 means no limit
	Offset     int
}

func (f ProblemFilter) DifficultyFilter() string {
	return normalizeFilter(f.Difficulty)
}

func (f ProblemFilter) CategoryFilter() string {
	return normalizeFilter(f.Category)
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}
