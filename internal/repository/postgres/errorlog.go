package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

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

func (r *errorLogRepo) Create(ctx context.Context, log *model.ErrorLog) error {
	log.CreatedAt = time.Now()
	log.UpdatedAt = nil

	err := r.conn.QueryRowContext(ctx,
		`INSERT INTO error_logs (user_id, message, error_type, project, git_branch, git_commit,
			os, language, tags, solution, notes, time_to_fix_min, resolved, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		log.UserID,
		log.Message,
		log.ErrorType,
		log.Project,
		log.GitBranch,
		log.GitCommit,
		log.OS,
		log.Language,
		pq.StringArray(log.Tags),
		log.Solution,
		log.Notes,
		log.TimeToFixMin,
		log.Resolved,
		log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating error log: %w", err)
	}

	return nil
}

func (r *errorLogRepo) GetByID(ctx context.Context, id, userID int64) (*model.ErrorLog, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+errorLogColumns+`
		 FROM error_logs
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	log, err := scanErrorLog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Error", id)
		}
		return nil, fmt.Errorf("postgres: getting error log %d: %w", id, err)
	}

	return log, nil
}

func (r *errorLogRepo) List(ctx context.Context, userID int64, filter repository.ErrorLogFilter) ([]model.ErrorLog, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + errorLogColumns + ` FROM error_logs WHERE user_id = $1`)
	args := []any{userID}

	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if filter.Project != "" {
		sb.WriteString(` AND project = ` + next())
		args = append(args, filter.Project)
	}
	if filter.Tag != "" {
		sb.WriteString(` AND ` + next() + ` = ANY(tags)`)
		args = append(args, filter.Tag)
	}
	if filter.Resolved != nil {
		sb.WriteString(` AND resolved = ` + next())
		args = append(args, *filter.Resolved)
	}
	if filter.Language != "" {
		sb.WriteString(` AND language = ` + next())
		args = append(args, filter.Language)
	}
	if filter.ErrorType != "" {
		sb.WriteString(` AND error_type = ` + next())
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
	sb.WriteString(` ORDER BY created_at DESC, id DESC LIMIT ` + next())
	args = append(args, limit)
	sb.WriteString(` OFFSET ` + next())
	args = append(args, offset)

	rows, err := r.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing error logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.ErrorLog, 0, limit)
	for rows.Next() {
		log, err := scanErrorLog(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning error log row: %w", err)
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating error logs: %w", err)
	}

	return logs, nil
}

func (r *errorLogRepo) Update(ctx context.Context, log *model.ErrorLog) error {
	now := time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE error_logs
		 SET message = $1, error_type = $2, project = $3, git_branch = $4, git_commit = $5,
			os = $6, language = $7, tags = $8, solution = $9, notes = $10,
			time_to_fix_min = $11, resolved = $12, updated_at = $13
		 WHERE id = $14 AND user_id = $15`,
		log.Message,
		log.ErrorType,
		log.Project,
		log.GitBranch,
		log.GitCommit,
		log.OS,
		log.Language,
		pq.StringArray(log.Tags),
		log.Solution,
		log.Notes,
		log.TimeToFixMin,
		log.Resolved,
		now,
		log.ID,
		log.UserID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating error log %d: %w", log.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Error", log.ID)
	}

	log.UpdatedAt = &now
	return nil
}

func (r *errorLogRepo) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM error_logs WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("postgres: deleting error log %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Error", id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanErrorLog(s scanner) (*model.ErrorLog, error) {
	var (
		log       model.ErrorLog
		tags      pq.StringArray
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

	log.Tags = []string(tags)
	if len(log.Tags) == 0 {
		log.Tags = nil
	}
	if updatedAt.Valid {
		log.UpdatedAt = &updatedAt.Time
	}

	return &log, nil
}
