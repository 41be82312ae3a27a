package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"code_arena/internal/api/middleware"
	"code_arena/internal/app/service"
	"code_arena/internal/common"
	"code_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems) // ?id= returns a single problem
	r.Get("/categories", h.listCategories)
	r.Get("/create", h.listCustomProblems)
	r.With(middleware.Authenticator).Post("/create", h.createProblem)
	// GET /api/problems/1 or /api/problems/two-sum
	r.Get("/{problemID}", h.getProblem)
}

type listProblemsResponse struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Page     int             `json:"page,omitempty"`
	PageSize int             `json:"pageSize,omitempty"`
}

// problemDetail always carries the relation arrays, empty or not; the
// outer fields shadow the omitempty ones on model.Problem.
type problemDetail struct {
	*model.Problem
	Examples    []model.Example    `json:"examples"`
	Constraints []model.Constraint `json:"constraints"`
	TestCases   []model.TestCase   `json:"testCases"`
}

func newProblemDetail(p *model.Problem) problemDetail {
	d := problemDetail{
		Problem:     p,
		Examples:    p.Examples,
		Constraints: p.Constraints,
		TestCases:   p.TestCases,
	}
	if d.Examples == nil {
		d.Examples = []model.Example{}
	}
	if d.Constraints == nil {
		d.Constraints = []model.Constraint{}
	}
	if d.TestCases == nil {
		d.TestCases = []model.TestCase{}
	}
	return d
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		h.writeProblem(w, r, id)
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	query := service.ListProblemsQuery{
		Difficulty: q.Get("difficulty"),
		Category:   q.Get("category"),
		Search:     q.Get("search"),
		Page:       page,
		PageSize:   pageSize,
	}

	problems, total, err := h.problemService.ListProblems(r.Context(), query)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}

	resp := listProblemsResponse{Problems: problems, Total: total}
	if page, pageSize, ok := query.Paging(); ok {
		resp.Page = page
		resp.PageSize = pageSize
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	h.writeProblem(w, r, chi.URLParam(r, "problemID"))
}

func (h *ProblemHandler) writeProblem(w http.ResponseWriter, r *http.Request, idOrSlug string) {
	problem, err := h.problemService.GetProblem(r.Context(), idOrSlug)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"problem": newProblemDetail(problem)})
}

func (h *ProblemHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.problemService.Categories(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (h *ProblemHandler) listCustomProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problemService.ListCustomProblems(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"problems": problems})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	author, ok := middleware.AuthUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), author, req)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"problem": newProblemDetail(problem),
		"message": "Problem created successfully",
	})
}
