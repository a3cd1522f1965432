package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
)

const staleRunError = "Reconciliation run did not complete (timed out or crashed)"

const defaultPerPage = 20

// ReportRepository persists reconciliation reports in PostgreSQL
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts a freshly created running report. The row is written before
// any upstream fetch so an interrupted run leaves a recoverable record.
func (r *ReportRepository) Save(ctx context.Context, report *reconciliation.Report) error {
	query := `
		INSERT INTO reconciliation_reports (
			id, period_start, period_end, status, generated_at, error, summary, discrepancies
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	summary, discrepancies, err := marshalReportBody(report)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		report.ID, report.PeriodStart, report.PeriodEnd, string(report.Status),
		report.GeneratedAt, report.Error, summary, discrepancies)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// Finalize persists the terminal state of a report. generated_at is never
// touched after creation.
func (r *ReportRepository) Finalize(ctx context.Context, report *reconciliation.Report) error {
	if !report.Status.IsTerminal() {
		return fmt.Errorf("cannot finalize report in status %s", report.Status)
	}

	query := `
		UPDATE reconciliation_reports
		SET status = $2, error = $3, summary = $4, discrepancies = $5
		WHERE id = $1`

	summary, discrepancies, err := marshalReportBody(report)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, query,
		report.ID, string(report.Status), report.Error, summary, discrepancies)
	if err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a report with its summary and discrepancy list
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error) {
	query := reportSelectColumns + ` FROM reconciliation_reports WHERE id = $1`

	report, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// GetLatest returns the most recent report by generated_at
func (r *ReportRepository) GetLatest(ctx context.Context) (*reconciliation.Report, error) {
	query := reportSelectColumns + `
		FROM reconciliation_reports
		ORDER BY generated_at DESC
		LIMIT 1`

	report, err := scanReport(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	return report, nil
}

// List returns one page of reports ordered by generated_at descending, with
// the total page count for the given page size. Page clamping is left to
// the caller.
func (r *ReportRepository) List(ctx context.Context, page, perPage int) (*reconciliation.ReportPage, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page < 1 {
		page = 1
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reconciliation_reports`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	query := reportSelectColumns + `
		FROM reconciliation_reports
		ORDER BY generated_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*reconciliation.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &reconciliation.ReportPage{
		Reports: reports,
		Pages:   pageCount(total, perPage),
		Total:   total,
	}, nil
}

// Delete removes one report by ID
func (r *ReportRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reconciliation_reports WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll removes every stored report
func (r *ReportRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reconciliation_reports`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteOlderThan removes reports generated before the cutoff, for retention
func (r *ReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM reconciliation_reports WHERE generated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkStaleReportsFailed force-fails running reports older than the
// threshold. Idempotent: a second sweep matches no rows because the status
// predicate no longer holds.
func (r *ReportRepository) MarkStaleReportsFailed(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	query := `
		UPDATE reconciliation_reports
		SET status = $1, error = $2
		WHERE status = $3 AND generated_at < $4`

	tag, err := r.db.Exec(ctx, query,
		string(reconciliation.StatusFailed), staleRunError,
		string(reconciliation.StatusRunning), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale reports: %w", err)
	}

	return tag.RowsAffected(), nil
}

const reportSelectColumns = `
		SELECT id, period_start, period_end, status, generated_at, error, summary, discrepancies`

// pageCount computes ceil(total / perPage)
func pageCount(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func marshalReportBody(report *reconciliation.Report) ([]byte, []byte, error) {
	var summary, discrepancies []byte

	if report.Summary != nil {
		data, err := json.Marshal(report.Summary)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal summary: %w", err)
		}
		summary = data
	}

	if report.Discrepancies != nil {
		data, err := json.Marshal(report.Discrepancies)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal discrepancies: %w", err)
		}
		discrepancies = data
	}

	return summary, discrepancies, nil
}

func scanReport(row pgx.Row) (*reconciliation.Report, error) {
	var (
		report        reconciliation.Report
		status        string
		summary       []byte
		discrepancies []byte
	)

	err := row.Scan(
		&report.ID, &report.PeriodStart, &report.PeriodEnd, &status,
		&report.GeneratedAt, &report.Error, &summary, &discrepancies)
	if err != nil {
		return nil, err
	}

	report.Status = reconciliation.ParseStatus(status)

	if len(summary) > 0 {
		var s reconciliation.Summary
		if err := json.Unmarshal(summary, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		report.Summary = &s
	}

	if len(discrepancies) > 0 {
		if err := json.Unmarshal(discrepancies, &report.Discrepancies); err != nil {
			return nil, fmt.Errorf("failed to unmarshal discrepancies: %w", err)
		}
	}

	return &report, nil
}
