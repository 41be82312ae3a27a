package model

import "time"

const (
	VerdictAccepted    = "Accepted"
	VerdictWrongAnswer = "Wrong Answer"
)

// TestResult is the outcome of one test case in a run or submission.
type TestResult struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Passed         bool   `json:"passed"`
	ExecutionTime  int    `json:"executionTime"` // ms
	MemoryUsed     int    `json:"memoryUsed"`    // MB
	Error          string `json:"error,omitempty"`
}

type RunSummary struct {
	TotalTests         int `json:"totalTests"`
	PassedTests        int `json:"passedTests"`
	FailedTests        int `json:"failedTests"`
	TotalExecutionTime int `json:"totalExecutionTime"`
	MaxMemoryUsed      int `json:"maxMemoryUsed"`
}

type SubmissionSummary struct {
	RunSummary
	AllPassed bool   `json:"allPassed"`
	Status    string `json:"status"`
}

type RunResult struct {
	Success   bool         `json:"success"`
	Language  string       `json:"language"`
	Results   []TestResult `json:"results"`
	Summary   RunSummary   `json:"summary"`
	Timestamp time.Time    `json:"timestamp"`
}

type SubmissionResult struct {
	Success   bool              `json:"success"`
	ProblemID string            `json:"problemId"`
	Language  string            `json:"language"`
	Results   []TestResult      `json:"results"`
	Summary   SubmissionSummary `json:"summary"`
	Timestamp time.Time         `json:"timestamp"`
}

// Summarize folds results into totals. MaxMemoryUsed is 0 for no results.
func Summarize(results []TestResult) RunSummary {
	s := RunSummary{TotalTests: len(results)}
	for _, r := range results {
		if r.Passed {
			s.PassedTests++
		} else {
			s.FailedTests++
		}
		s.TotalExecutionTime += r.ExecutionTime
		if r.MemoryUsed > s.MaxMemoryUsed {
			s.MaxMemoryUsed = r.MemoryUsed
		}
	}
	return s
}
