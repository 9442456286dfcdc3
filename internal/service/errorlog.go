package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
)

// Field limits match the original schema: git commits are 40-hex SHAs,
// the other short strings are bounded so an index stays useful.
const (
	MaxMessageLength    = 10000
	MaxErrorTypeLength  = 100
	MaxProjectLength    = 255
	MaxGitBranchLength  = 255
	MaxGitCommitLength  = 40
	MaxOSLength         = 50
	MaxLanguageLength   = 50
	MaxTextFieldLength  = 10000 // solution, notes
	DefaultListLimit    = 100
	MaxListLimit        = 500
)

// ErrorLogDraft is the caller-supplied payload for creating an error log.
// The server assigns id, owner, and timestamps.
type ErrorLogDraft struct {
	Message      string   `json:"message"`
	ErrorType    string   `json:"error_type"`
	Project      string   `json:"project"`
	GitBranch    string   `json:"git_branch"`
	GitCommit    string   `json:"git_commit"`
	OS           string   `json:"os"`
	Language     string   `json:"language"`
	Tags         []string `json:"tags"`
	Solution     string   `json:"solution"`
	Notes        string   `json:"notes"`
	TimeToFixMin int      `json:"time_to_fix_min"`
	Resolved     bool     `json:"resolved"`
}

// ErrorLogPatch is a partial update. Every field is a pointer: nil means
// "absent from the request body, leave the stored value untouched".
type ErrorLogPatch struct {
	Message      *string   `json:"message"`
	ErrorType    *string   `json:"error_type"`
	Project      *string   `json:"project"`
	GitBranch    *string   `json:"git_branch"`
	GitCommit    *string   `json:"git_commit"`
	OS           *string   `json:"os"`
	Language     *string   `json:"language"`
	Tags         *[]string `json:"tags"`
	Solution     *string   `json:"solution"`
	Notes        *string   `json:"notes"`
	TimeToFixMin *int      `json:"time_to_fix_min"`
	Resolved     *bool     `json:"resolved"`
}

// ErrorLogService handles the business rules for error logs. Every
// operation takes the calling user's id; ownership scoping itself is
// enforced one layer down, in the repositories.
type ErrorLogService struct {
	repo   repository.ErrorLogRepository
	logger *slog.Logger
}

func NewErrorLogService(repo repository.ErrorLogRepository, logger *slog.Logger) *ErrorLogService {
	return &ErrorLogService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates the draft and saves a new error log owned by userID.
func (s *ErrorLogService) Create(ctx context.Context, userID int64, draft ErrorLogDraft) (*model.ErrorLog, error) {
	draft.Message = strings.TrimSpace(draft.Message)
	if draft.Message == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if err := validateLengths(&draft); err != nil {
		return nil, err
	}
	if draft.TimeToFixMin < 0 {
		return nil, apperror.ValidationFailed("time_to_fix_min", "time_to_fix_min must not be negative")
	}

	log := &model.ErrorLog{
		UserID:       userID,
		Message:      draft.Message,
		ErrorType:    draft.ErrorType,
		Project:      draft.Project,
		GitBranch:    draft.GitBranch,
		GitCommit:    draft.GitCommit,
		OS:           draft.OS,
		Language:     draft.Language,
		Tags:         draft.Tags,
		Solution:     draft.Solution,
		Notes:        draft.Notes,
		TimeToFixMin: draft.TimeToFixMin,
		Resolved:     draft.Resolved,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Error("failed to create error log",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating error log: %w", err)
	}

	s.logger.Info("error log created",
		slog.Int64("id", log.ID),
		slog.Int64("userID", userID),
	)

	return log, nil
}

// Get returns a single error log owned by userID.
func (s *ErrorLogService) Get(ctx context.Context, userID, id int64) (*model.ErrorLog, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// List returns the caller's error logs with the given filters, newest
// first. Limit defaults to 100 and is clamped so a caller cannot request
// the whole table in one page.
func (s *ErrorLogService) List(ctx context.Context, userID int64, filter repository.ErrorLogFilter) ([]model.ErrorLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		s.logger.Error("failed to list error logs",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing error logs: %w", err)
	}

	return logs, nil
}

// Update applies a partial patch: fetch the record (confirming existence
// and ownership in one step), overwrite only the fields present in the
// patch, validate, and write the result back.
func (s *ErrorLogService) Update(ctx context.Context, userID, id int64, patch ErrorLogPatch) (*model.ErrorLog, error) {
	log, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Message != nil {
		message := strings.TrimSpace(*patch.Message)
		if message == "" {
			return nil, apperror.ValidationFailed("message", "message must not be empty")
		}
		log.Message = message
	}
	if patch.ErrorType != nil {
		log.ErrorType = *patch.ErrorType
	}
	if patch.Project != nil {
		log.Project = *patch.Project
	}
	if patch.GitBranch != nil {
		log.GitBranch = *patch.GitBranch
	}
	if patch.GitCommit != nil {
		log.GitCommit = *patch.GitCommit
	}
	if patch.OS != nil {
		log.OS = *patch.OS
	}
	if patch.Language != nil {
		log.Language = *patch.Language
	}
	if patch.Tags != nil {
		log.Tags = *patch.Tags
	}
	if patch.Solution != nil {
		log.Solution = *patch.Solution
	}
	if patch.Notes != nil {
		log.Notes = *patch.Notes
	}
	if patch.TimeToFixMin != nil {
		if *patch.TimeToFixMin < 0 {
			return nil, apperror.ValidationFailed("time_to_fix_min", "time_to_fix_min must not be negative")
		}
		log.TimeToFixMin = *patch.TimeToFixMin
	}
	if patch.Resolved != nil {
		log.Resolved = *patch.Resolved
	}

	draft := draftFromModel(log)
	if err := validateLengths(&draft); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, log); err != nil {
		s.logger.Error("failed to update error log",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating error log: %w", err)
	}

	return log, nil
}

// Delete hard-deletes an error log owned by userID.
func (s *ErrorLogService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("error log deleted",
		slog.Int64("id", id),
		slog.Int64("userID", userID),
	)
	return nil
}

func validateLengths(d *ErrorLogDraft) error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"message", d.Message, MaxMessageLength},
		{"error_type", d.ErrorType, MaxErrorTypeLength},
		{"project", d.Project, MaxProjectLength},
		{"git_branch", d.GitBranch, MaxGitBranchLength},
		{"git_commit", d.GitCommit, MaxGitCommitLength},
		{"os", d.OS, MaxOSLength},
		{"language", d.Language, MaxLanguageLength},
		{"solution", d.Solution, MaxTextFieldLength},
		{"notes", d.Notes, MaxTextFieldLength},
	}
	for _, c := range checks {
		if len(c.value) > c.max {
			return apperror.ValidationFailed(c.field,
				fmt.Sprintf("%s must be %d characters or less", c.field, c.max))
		}
	}
	return nil
}

func draftFromModel(log *model.ErrorLog) ErrorLogDraft {
	return ErrorLogDraft{
		Message:   log.Message,
		ErrorType: log.ErrorType,
		Project:   log.Project,
		GitBranch: log.GitBranch,
		GitCommit: log.GitCommit,
		OS:        log.OS,
		Language:  log.Language,
		Solution:  log.Solution,
		Notes:     log.Notes,
	}
}
