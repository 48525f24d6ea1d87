package database

import (
	"briefly/internal/domain"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

func (d *Database) RecordRequest(ctx context.Context, r domain.SummaryRequest) error {
	source := strings.TrimSpace(r.Source)
	if source == "" {
		return errors.New("request source is empty")
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `insert into summary_requests
	(created_at, source, style, text_chars, status, summary_chars, duration_ms)
	values (?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(
		ctx,
		query,
		createdAt.UTC().Unix(),
		source,
		r.Style,
		r.TextChars,
		r.Status,
		r.SummaryChars,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}

	return nil
}

// PruneRequests deletes requests created strictly before the given time and
// reports how many rows were removed.
func (d *Database) PruneRequests(ctx context.Context, before time.Time) (int64, error) {
	query := "delete from summary_requests where created_at < ?"

	res, err := d.db.ExecContext(ctx, query, before.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

func (d *Database) CountRequests(ctx context.Context) (int64, error) {
	query := "select count(*) from summary_requests"

	var count int64
	if err := d.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to scan row: %w", err)
	}

	return count, nil
}

func (d *Database) GetRecentRequests(ctx context.Context, limit int) ([]domain.SummaryRequest, error) {
	query := `select created_at, source, style, text_chars, status, summary_chars, duration_ms
	from summary_requests
	order by created_at desc, id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"limit", limit,
				"operation", "GetRecentRequests")
		}
	}()

	var requests []domain.SummaryRequest
	for rows.Next() {
		var (
			r          domain.SummaryRequest
			createdAt  int64
			durationMs int64
		)
		if err = rows.Scan(
			&createdAt,
			&r.Source,
			&r.Style,
			&r.TextChars,
			&r.Status,
			&r.SummaryChars,
			&durationMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		r.Duration = time.Duration(durationMs) * time.Millisecond
		requests = append(requests, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return requests, nil
}
