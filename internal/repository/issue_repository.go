package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// IssueFilter captures listing parameters. Results are server-ordered by
// urgency_score desc, created_at desc, matching the live-query contract.
type IssueFilter struct {
	CreatedBy      *string
	Statuses       []domain.Status
	Categories     []domain.Category
	Location       *string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// IssueRepository encapsulates issue persistence. ApplyTransition is the
// only mutating path after creation and is atomic per issue.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ListRecent(ctx context.Context, since time.Time) ([]domain.Issue, error)
	ApplyTransition(ctx context.Context, issueID string, apply func(domain.Issue) (domain.Issue, error)) (*domain.Issue, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, urgency, urgency_score, location,
    status, escalated, is_deleted, assigned_to, assigned_by, created_by, deleted_by,
    evidence_url, evidence_path, evidence_name, auto_reason,
    created_at, updated_at, assigned_at, escalated_at, deleted_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO issues (title, description, category, urgency, urgency_score, location,
            status, escalated, is_deleted, assigned_to, assigned_by, created_by,
            evidence_url, evidence_path, evidence_name, auto_reason,
            created_at, updated_at, assigned_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING id`
	var evidenceURL, evidencePath, evidenceName *string
	if issue.Evidence != nil {
		evidenceURL = &issue.Evidence.URL
		evidencePath = &issue.Evidence.Path
		evidenceName = &issue.Evidence.Name
	}
	if err := tx.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Urgency,
		issue.UrgencyScore,
		issue.Location,
		issue.Status,
		issue.Escalated,
		issue.IsDeleted,
		issue.AssignedTo,
		issue.AssignedBy,
		issue.CreatedBy,
		evidenceURL,
		evidencePath,
		evidenceName,
		issue.AutoReason,
		issue.CreatedAt,
		issue.UpdatedAt,
		issue.AssignedAt,
	).Scan(&issue.ID); err != nil {
		return err
	}

	for _, entry := range issue.History {
		if err := insertHistory(ctx, tx, issue.ID, entry); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	history, err := r.loadHistory(ctx, r.pool, issue.ID)
	if err != nil {
		return nil, err
	}
	issue.History = history
	return issue, nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "is_deleted = FALSE")
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.Location != nil {
		args = append(args, *filter.Location)
		clauses = append(clauses, fmt.Sprintf("location=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s
        ORDER BY urgency_score DESC, created_at DESC LIMIT %d OFFSET %d`,
		issueColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	return r.attachHistory(ctx, issues)
}

// ListRecent returns non-deleted issues created at or after since, newest
// first. It feeds the duplicate-detection window.
func (r *issueRepository) ListRecent(ctx context.Context, since time.Time) ([]domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues
        WHERE is_deleted = FALSE AND created_at >= $1
        ORDER BY created_at DESC`, issueColumns)
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// ApplyTransition loads the issue under a row lock, runs apply against the
// snapshot and persists the outcome. The read, the decision and the single
// history append commit as one unit, so concurrent transitions on the same
// issue serialize instead of losing entries.
func (r *issueRepository) ApplyTransition(ctx context.Context, issueID string, apply func(domain.Issue) (domain.Issue, error)) (*domain.Issue, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1 FOR UPDATE`, issueColumns)
	issue, err := scanIssue(tx.QueryRow(ctx, query, issueID))
	if err != nil {
		return nil, err
	}
	history, err := r.loadHistory(ctx, tx, issue.ID)
	if err != nil {
		return nil, err
	}
	issue.History = history

	next, err := apply(*issue)
	if err != nil {
		return nil, err
	}
	if len(next.History) != len(issue.History)+1 {
		return nil, fmt.Errorf("transition must append exactly one history entry, got %d -> %d",
			len(issue.History), len(next.History))
	}

	const update = `
        UPDATE issues SET status=$1, escalated=$2, is_deleted=$3, assigned_to=$4,
            assigned_by=$5, deleted_by=$6, updated_at=$7, assigned_at=$8,
            escalated_at=$9, deleted_at=$10
        WHERE id=$11`
	if _, err := tx.Exec(ctx, update,
		next.Status,
		next.Escalated,
		next.IsDeleted,
		next.AssignedTo,
		next.AssignedBy,
		next.DeletedBy,
		next.UpdatedAt,
		next.AssignedAt,
		next.EscalatedAt,
		next.DeletedAt,
		next.ID,
	); err != nil {
		return nil, err
	}
	if err := insertHistory(ctx, tx, next.ID, next.History[len(next.History)-1]); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &next, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *issueRepository) loadHistory(ctx context.Context, q queryer, issueID string) ([]domain.HistoryEntry, error) {
	const query = `SELECT entry, at, note FROM issue_history WHERE issue_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(&entry.Entry, &entry.At, &entry.Note); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (r *issueRepository) attachHistory(ctx context.Context, issues []domain.Issue) ([]domain.Issue, error) {
	for i := range issues {
		history, err := r.loadHistory(ctx, r.pool, issues[i].ID)
		if err != nil {
			return nil, err
		}
		issues[i].History = history
	}
	return issues, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, issueID string, entry domain.HistoryEntry) error {
	const query = `INSERT INTO issue_history (issue_id, entry, at, note) VALUES ($1,$2,$3,$4)`
	_, err := tx.Exec(ctx, query, issueID, entry.Entry, entry.At, entry.Note)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	var evidenceURL, evidencePath, evidenceName *string
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Urgency,
		&issue.UrgencyScore,
		&issue.Location,
		&issue.Status,
		&issue.Escalated,
		&issue.IsDeleted,
		&issue.AssignedTo,
		&issue.AssignedBy,
		&issue.CreatedBy,
		&issue.DeletedBy,
		&evidenceURL,
		&evidencePath,
		&evidenceName,
		&issue.AutoReason,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.AssignedAt,
		&issue.EscalatedAt,
		&issue.DeletedAt,
	); err != nil {
		return nil, err
	}
	if evidenceURL != nil {
		issue.Evidence = &domain.EvidenceImage{URL: *evidenceURL}
		if evidencePath != nil {
			issue.Evidence.Path = *evidencePath
		}
		if evidenceName != nil {
			issue.Evidence.Name = *evidenceName
		}
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}
