package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/platform/database"
)

type sqlProblemRepository struct {
	db *database.DB
}

func NewSQLProblemRepository(db *database.DB) ProblemRepository {
	return &sqlProblemRepository{db: db}
}

// NewSQLStore wires both repositories over one pool.
func NewSQLStore(db *database.DB) *Store {
	return &Store{
		Driver:   db.Dialect.String(),
		Users:    NewSQLUserRepository(db),
		Problems: NewSQLProblemRepository(db),
		Ping:     db.PingContext,
	}
}

const problemColumns = `p.id, p.title, p.slug, p.description, p.difficulty, p.category,
               p.acceptance, p.submission_count, p.likes, p.dislikes,
               p.created_by, u.username, p.is_custom, p.created_at`

const problemFrom = ` FROM problems p LEFT JOIN users u ON p.created_by = u.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	var (
		p         model.Problem
		createdBy sql.NullString
		username  sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &p.Category,
		&p.Acceptance, &p.SubmissionCount, &p.Likes, &p.Dislikes,
		&createdBy, &username, &p.IsCustom, database.Timestamp{Time: &p.CreatedAt},
	)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		p.CreatedBy = &createdBy.String
	}
	if username.Valid {
		p.User = &model.ProblemAuthor{Username: username.String}
	}
	return &p, nil
}

func (r *sqlProblemRepository) CreateProblem(ctx context.Context, p *model.Problem) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlProblemRepository.CreateProblem begin: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	query := r.db.Rebind(`INSERT INTO problems (title, slug, description, difficulty, category, acceptance, submission_count, likes, dislikes, created_by, is_custom, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err = tx.QueryRowContext(ctx, query,
		p.Title, p.Slug, p.Description, string(p.Difficulty), p.Category, p.Acceptance, p.SubmissionCount,
		p.Likes, p.Dislikes, p.CreatedBy, p.IsCustom, p.CreatedAt.UTC(),
	).Scan(&p.ID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("problem already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqlProblemRepository.CreateProblem: %w", err)
	}

	if err := r.addExamples(ctx, tx, p.ID, p.Examples); err != nil {
		return err
	}
	if err := r.addConstraints(ctx, tx, p.ID, p.Constraints); err != nil {
		return err
	}
	if err := r.addTestCases(ctx, tx, p.ID, p.TestCases); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlProblemRepository.CreateProblem commit: %w", err)
	}
	return nil
}

func (r *sqlProblemRepository) addExamples(ctx context.Context, tx *sql.Tx, problemID int64, examples []model.Example) error {
	if len(examples) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`INSERT INTO examples (problem_id, input, output, explanation, sort_order) VALUES (?, ?, ?, ?, ?) RETURNING id`))
	if err != nil {
		return fmt.Errorf("sqlProblemRepository.addExamples prepare: %w", err)
	}
	defer stmt.Close()

	for i := range examples {
		ex := &examples[i]
		ex.ProblemID = problemID
		if err := stmt.QueryRowContext(ctx, problemID, ex.Input, ex.Output, ex.Explanation, i+1).Scan(&ex.ID); err != nil {
			return fmt.Errorf("sqlProblemRepository.addExamples exec #%d: %w", i, err)
		}
	}
	return nil
}

func (r *sqlProblemRepository) addConstraints(ctx context.Context, tx *sql.Tx, problemID int64, constraints []model.Constraint) error {
	if len(constraints) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`INSERT INTO problem_constraints (problem_id, text, sort_order) VALUES (?, ?, ?) RETURNING id`))
	if err != nil {
		return fmt.Errorf("sqlProblemRepository.addConstraints prepare: %w", err)
	}
	defer stmt.Close()

	for i := range constraints {
		c := &constraints[i]
		c.ProblemID = problemID
		if err := stmt.QueryRowContext(ctx, problemID, c.Text, i+1).Scan(&c.ID); err != nil {
			return fmt.Errorf("sqlProblemRepository.addConstraints exec #%d: %w", i, err)
		}
	}
	return nil
}

func (r *sqlProblemRepository) addTestCases(ctx context.Context, tx *sql.Tx, problemID int64, testCases []model.TestCase) error {
	if len(testCases) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`INSERT INTO test_cases (problem_id, input, expected_output, sort_order) VALUES (?, ?, ?, ?) RETURNING id`))
	if err != nil {
		return fmt.Errorf("sqlProblemRepository.addTestCases prepare: %w", err)
	}
	defer stmt.Close()

	for i := range testCases {
		tc := &testCases[i]
		tc.ProblemID = problemID
		if err := stmt.QueryRowContext(ctx, problemID, tc.Input, tc.ExpectedOutput, i+1).Scan(&tc.ID); err != nil {
			return fmt.Errorf("sqlProblemRepository.addTestCases exec #%d: %w", i, err)
		}
	}
	return nil
}

func (r *sqlProblemRepository) FindProblemByID(ctx context.Context, id int64) (*model.Problem, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+problemColumns+problemFrom+` WHERE p.id = ?`), id)
	return r.loadProblem(ctx, row, "FindProblemByID")
}

func (r *sqlProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+problemColumns+problemFrom+` WHERE p.slug = ? ORDER BY p.id ASC LIMIT 1`), slug)
	return r.loadProblem(ctx, row, "FindProblemBySlug")
}

func (r *sqlProblemRepository) loadProblem(ctx context.Context, row *sql.Row, op string) (*model.Problem, error) {
	problem, err := scanProblem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlProblemRepository.%s: %w", op, err)
	}

	if problem.Examples, err = r.getExamples(ctx, problem.ID); err != nil {
		return nil, err
	}
	if problem.Constraints, err = r.getConstraints(ctx, problem.ID); err != nil {
		return nil, err
	}
	if problem.TestCases, err = r.GetTestCasesByProblemID(ctx, problem.ID); err != nil {
		return nil, err
	}
	return problem, nil
}

func (r *sqlProblemRepository) getExamples(ctx context.Context, problemID int64) ([]model.Example, error) {
	query := r.db.Rebind(`SELECT id, problem_id, input, output, explanation
              FROM examples WHERE problem_id = ? ORDER BY sort_order ASC, id ASC`)
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.getExamples query: %w", err)
	}
	defer rows.Close()

	examples := []model.Example{}
	for rows.Next() {
		var ex model.Example
		if err := rows.Scan(&ex.ID, &ex.ProblemID, &ex.Input, &ex.Output, &ex.Explanation); err != nil {
			return nil, fmt.Errorf("sqlProblemRepository.getExamples scan: %w", err)
		}
		examples = append(examples, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.getExamples rows.Err: %w", err)
	}
	return examples, nil
}

func (r *sqlProblemRepository) getConstraints(ctx context.Context, problemID int64) ([]model.Constraint, error) {
	query := r.db.Rebind(`SELECT id, problem_id, text
              FROM problem_constraints WHERE problem_id = ? ORDER BY sort_order ASC, id ASC`)
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.getConstraints query: %w", err)
	}
	defer rows.Close()

	constraints := []model.Constraint{}
	for rows.Next() {
		var c model.Constraint
		if err := rows.Scan(&c.ID, &c.ProblemID, &c.Text); err != nil {
			return nil, fmt.Errorf("sqlProblemRepository.getConstraints scan: %w", err)
		}
		constraints = append(constraints, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.getConstraints rows.Err: %w", err)
	}
	return constraints, nil
}

func (r *sqlProblemRepository) GetTestCasesByProblemID(ctx context.Context, problemID int64) ([]model.TestCase, error) {
	query := r.db.Rebind(`SELECT id, problem_id, input, expected_output
              FROM test_cases WHERE problem_id = ? ORDER BY sort_order ASC, id ASC`)
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.GetTestCasesByProblemID query: %w", err)
	}
	defer rows.Close()

	testCases := []model.TestCase{}
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput); err != nil {
			return nil, fmt.Errorf("sqlProblemRepository.GetTestCasesByProblemID scan: %w", err)
		}
		testCases = append(testCases, tc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.GetTestCasesByProblemID rows.Err: %w", err)
	}
	return testCases, nil
}

// ListProblems returns problem summaries (no examples, constraints or test
// cases) matching filter, and the total before pagination.
func (r *sqlProblemRepository) ListProblems(ctx context.Context, filter model.ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}

	if difficulty := filter.DifficultyFilter(); difficulty != "" {
		conditions = append(conditions, "LOWER(p.difficulty) = LOWER(?)")
		args = append(args, difficulty)
	}
	if category := filter.CategoryFilter(); category != "" {
		conditions = append(conditions, "LOWER(p.category) = LOWER(?)")
		args = append(args, category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := r.db.Dialect.CaseInsensitiveLike()
		conditions = append(conditions, fmt.Sprintf(`(p.title %s ? ESCAPE '\' OR p.description %s ? ESCAPE '\')`, like, like))
		pattern := database.LikePattern(search)
		args = append(args, pattern, pattern)
	}

	var where string
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM problems p`+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlProblemRepository.ListProblems count: %w", err)
	}

	var query strings.Builder
	query.WriteString(`SELECT ` + problemColumns + problemFrom + where + ` ORDER BY p.id ASC`)
	if filter.Limit > 0 {
		query.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	problems, err := r.queryProblems(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlProblemRepository.ListProblems: %w", err)
	}
	return problems, total, nil
}

func (r *sqlProblemRepository) ListCustomProblems(ctx context.Context) ([]model.Problem, error) {
	problems, err := r.queryProblems(ctx, `SELECT `+problemColumns+problemFrom+` WHERE p.is_custom = ? ORDER BY p.created_at DESC, p.id DESC`, true)
	if err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.ListCustomProblems: %w", err)
	}
	return problems, nil
}

func (r *sqlProblemRepository) queryProblems(ctx context.Context, query string, args ...interface{}) ([]model.Problem, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return problems, nil
}

func (r *sqlProblemRepository) CountProblems(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlProblemRepository.CountProblems: %w", err)
	}
	return n, nil
}

// FirstProblem returns the lowest-id problem with its relations.
func (r *sqlProblemRepository) FirstProblem(ctx context.Context) (*model.Problem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+problemColumns+problemFrom+` ORDER BY p.id ASC LIMIT 1`)
	return r.loadProblem(ctx, row, "FirstProblem")
}
