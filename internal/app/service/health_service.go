package service

import (
	"context"
	"errors"
	"fmt"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/domain/repository"
)

type HealthService struct {
	store *repository.Store
}

func NewHealthService(store *repository.Store) *HealthService {
	return &HealthService{store: store}
}

type DBStats struct {
	ProblemCount int `json:"problemCount"`
	UserCount    int `json:"userCount"`
}

type DBReport struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Driver        string         `json:"driver"`
	Stats         DBStats        `json:"stats"`
	SampleProblem *model.Problem `json:"sampleProblem"`
}

// TestDB pings the store and gathers counts plus the first problem. The
// sample is null when there are no problems.
func (s *HealthService) TestDB(ctx context.Context) (*DBReport, error) {
	if err := s.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	problemCount, err := s.store.Problems.CountProblems(ctx)
	if err != nil {
		return nil, err
	}
	userCount, err := s.store.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	sample, err := s.store.Problems.FirstProblem(ctx)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	return &DBReport{
		Success:       true,
		Message:       "Database connection successful",
		Driver:        s.store.Driver,
		Stats:         DBStats{ProblemCount: problemCount, UserCount: userCount},
		SampleProblem: sample,
	}, nil
}
