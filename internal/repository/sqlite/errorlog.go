package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
)

type errorLogRepo struct {
	conn *sql.DB
}

var _ repository.ErrorLogRepository = (*errorLogRepo)(nil)

const errorLogColumns = `id, user_id, message, error_type, project, git_branch, git_commit,
	os, language, tags, solution, notes, time_to_fix_min, resolved, created_at, updated_at`

// Create inserts a new error log for log.UserID and fills in the generated
// ID and CreatedAt.
func (r *errorLogRepo) Create(ctx context.Context, log *model.ErrorLog) error {
	log.CreatedAt = time.Now()
	log.UpdatedAt = nil

	tags, err := encodeTags(log.Tags)
	if err != nil {
		return err
	}

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO error_logs (user_id, message, error_type, project, git_branch, git_commit,
			os, language, tags, solution, notes, time_to_fix_min, resolved, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.UserID,
		log.Message,
		log.ErrorType,
		log.Project,
		log.GitBranch,
		log.GitCommit,
		log.OS,
		log.Language,
		tags,
		log.Solution,
		log.Notes,
		log.TimeToFixMin,
		log.Resolved,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating error log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted error log id: %w", err)
	}
	log.ID = id

	return nil
}

// GetByID fetches a single record scoped to its owner. The WHERE clause
// filters on both id and user_id — a record owned by another user yields
// the same NotFound as a record that does not exist.
func (r *errorLogRepo) GetByID(ctx context.Context, id, userID int64) (*model.ErrorLog, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+errorLogColumns+`
		 FROM error_logs
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	log, err := scanErrorLog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Error", id)
		}
		return nil, fmt.Errorf("sqlite: getting error log %d: %w", id, err)
	}

	return log, nil
}

// List returns the caller's error logs, newest first, with the optional
// filters ANDed together. The query is assembled incrementally; every
// value goes through a placeholder.
func (r *errorLogRepo) List(ctx context.Context, userID int64, filter repository.ErrorLogFilter) ([]model.ErrorLog, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + errorLogColumns + ` FROM error_logs WHERE user_id = ?`)
	args := []any{userID}

	if filter.Project != "" {
		sb.WriteString(` AND project = ?`)
		args = append(args, filter.Project)
	}
	if filter.Tag != "" {
		// Membership test against the JSON tags array.
		sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(error_logs.tags) WHERE json_each.value = ?)`)
		args = append(args, filter.Tag)
	}
	if filter.Resolved != nil {
		sb.WriteString(` AND resolved = ?`)
		args = append(args, *filter.Resolved)
	}
	if filter.Language != "" {
		sb.WriteString(` AND language = ?`)
		args = append(args, filter.Language)
	}
	if filter.ErrorType != "" {
		sb.WriteString(` AND error_type = ?`)
		args = append(args, filter.ErrorType)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	args = append(args, limit, offset)

	rows, err := r.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing error logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.ErrorLog, 0, limit)
	for rows.Next() {
		log, err := scanErrorLog(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning error log row: %w", err)
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating error logs: %w", err)
	}

	return logs, nil
}

// Update writes back every mutable column. The service layer has already
// applied the partial patch to a fetched copy, so a full-row write keeps
// the SQL static. Scoped to the owner via (id, user_id).
func (r *errorLogRepo) Update(ctx context.Context, log *model.ErrorLog) error {
	now := time.Now()

	tags, err := encodeTags(log.Tags)
	if err != nil {
		return err
	}

	result, err := r.conn.ExecContext(ctx,
		`UPDATE error_logs
		 SET message = ?, error_type = ?, project = ?, git_branch = ?, git_commit = ?,
			os = ?, language = ?, tags = ?, solution = ?, notes = ?,
			time_to_fix_min = ?, resolved = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		log.Message,
		log.ErrorType,
		log.Project,
		log.GitBranch,
		log.GitCommit,
		log.OS,
		log.Language,
		tags,
		log.Solution,
		log.Notes,
		log.TimeToFixMin,
		log.Resolved,
		now,
		log.ID,
		log.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating error log %d: %w", log.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Error", log.ID)
	}

	log.UpdatedAt = &now
	return nil
}

// Delete removes the record outright (no soft delete). Scoped to the
// owner; deleting someone else's record reports NotFound.
func (r *errorLogRepo) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM error_logs WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting error log %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Error", id)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanErrorLog(s scanner) (*model.ErrorLog, error) {
	var (
		log       model.ErrorLog
		tags      string
		updatedAt sql.NullTime
	)

	err := s.Scan(
		&log.ID,
		&log.UserID,
		&log.Message,
		&log.ErrorType,
		&log.Project,
		&log.GitBranch,
		&log.GitCommit,
		&log.OS,
		&log.Language,
		&tags,
		&log.Solution,
		&log.Notes,
		&log.TimeToFixMin,
		&log.Resolved,
		&log.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tags != "" && tags != "[]" {
		if err := json.Unmarshal([]byte(tags), &log.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
	}
	if updatedAt.Valid {
		log.UpdatedAt = &updatedAt.Time
	}

	return &log, nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}
