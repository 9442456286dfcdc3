package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
)

// fakeErrorLogRepo is an in-memory repository.ErrorLogRepository covering
// the behavior the service depends on: ownership scoping and pagination.
// Filtering is exercised against the real backend in the sqlite package.
type fakeErrorLogRepo struct {
	logs   map[int64]*model.ErrorLog
	nextID int64

	// lastFilter records what the service actually asked for, so tests can
	// assert on clamping without re-implementing the query.
	lastFilter repository.ErrorLogFilter
}

var _ repository.ErrorLogRepository = (*fakeErrorLogRepo)(nil)

func newFakeErrorLogRepo() *fakeErrorLogRepo {
	return &fakeErrorLogRepo{logs: make(map[int64]*model.ErrorLog), nextID: 1}
}

func (f *fakeErrorLogRepo) Create(ctx context.Context, log *model.ErrorLog) error {
	log.ID = f.nextID
	f.nextID++
	log.CreatedAt = time.Now()
	copied := *log
	f.logs[log.ID] = &copied
	return nil
}

func (f *fakeErrorLogRepo) GetByID(ctx context.Context, id, userID int64) (*model.ErrorLog, error) {
	log, ok := f.logs[id]
	if !ok || log.UserID != userID {
		return nil, apperror.NotFound("Error", id)
	}
	copied := *log
	return &copied, nil
}

func (f *fakeErrorLogRepo) List(ctx context.Context, userID int64, filter repository.ErrorLogFilter) ([]model.ErrorLog, error) {
	f.lastFilter = filter
	out := make([]model.ErrorLog, 0)
	for _, log := range f.logs {
		if log.UserID == userID {
			out = append(out, *log)
		}
	}
	return out, nil
}

func (f *fakeErrorLogRepo) Update(ctx context.Context, log *model.ErrorLog) error {
	existing, ok := f.logs[log.ID]
	if !ok || existing.UserID != log.UserID {
		return apperror.NotFound("Error", log.ID)
	}
	now := time.Now()
	log.UpdatedAt = &now
	copied := *log
	f.logs[log.ID] = &copied
	return nil
}

func (f *fakeErrorLogRepo) Delete(ctx context.Context, id, userID int64) error {
	log, ok := f.logs[id]
	if !ok || log.UserID != userID {
		return apperror.NotFound("Error", id)
	}
	delete(f.logs, id)
	return nil
}

func newTestErrorLogService(repo *fakeErrorLogRepo) *ErrorLogService {
	return NewErrorLogService(repo, testLogger())
}

func TestErrorLogCreate_SetsOwner(t *testing.T) {
	repo := newFakeErrorLogRepo()
	svc := newTestErrorLogService(repo)

	log, err := svc.Create(context.Background(), 7, ErrorLogDraft{Message: "boom"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.UserID != 7 {
		t.Errorf("UserID = %d, want 7", log.UserID)
	}
	if log.ID == 0 {
		t.Error("Create() should assign an id")
	}
}

func TestErrorLogCreate_RequiresMessage(t *testing.T) {
	svc := newTestErrorLogService(newFakeErrorLogRepo())

	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := svc.Create(context.Background(), 1, ErrorLogDraft{Message: message})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Create(message=%q) error = %v, want ErrValidation", message, err)
		}
	}
}

func TestErrorLogCreate_TrimsMessage(t *testing.T) {
	svc := newTestErrorLogService(newFakeErrorLogRepo())

	log, err := svc.Create(context.Background(), 1, ErrorLogDraft{Message: "  boom  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.Message != "boom" {
		t.Errorf("Message = %q, want trimmed %q", log.Message, "boom")
	}
}

func TestErrorLogCreate_FieldLimits(t *testing.T) {
	svc := newTestErrorLogService(newFakeErrorLogRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		draft ErrorLogDraft
	}{
		{"message too long", ErrorLogDraft{Message: strings.Repeat("x", MaxMessageLength+1)}},
		{"error_type too long", ErrorLogDraft{Message: "ok", ErrorType: strings.Repeat("x", MaxErrorTypeLength+1)}},
		{"project too long", ErrorLogDraft{Message: "ok", Project: strings.Repeat("x", MaxProjectLength+1)}},
		{"git_commit too long", ErrorLogDraft{Message: "ok", GitCommit: strings.Repeat("a", MaxGitCommitLength+1)}},
		{"os too long", ErrorLogDraft{Message: "ok", OS: strings.Repeat("x", MaxOSLength+1)}},
		{"language too long", ErrorLogDraft{Message: "ok", Language: strings.Repeat("x", MaxLanguageLength+1)}},
		{"negative time_to_fix", ErrorLogDraft{Message: "ok", TimeToFixMin: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tt.draft)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestErrorLogList_ClampsPagination(t *testing.T) {
	repo := newFakeErrorLogRepo()
	svc := newTestErrorLogService(repo)
	ctx := context.Background()

	if _, err := svc.List(ctx, 1, repository.ErrorLogFilter{}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lastFilter.Limit != DefaultListLimit {
		t.Errorf("default limit = %d, want %d", repo.lastFilter.Limit, DefaultListLimit)
	}

	if _, err := svc.List(ctx, 1, repository.ErrorLogFilter{Limit: 10000, Offset: -5}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lastFilter.Limit != MaxListLimit {
		t.Errorf("oversized limit = %d, want clamped to %d", repo.lastFilter.Limit, MaxListLimit)
	}
	if repo.lastFilter.Offset != 0 {
		t.Errorf("negative offset = %d, want clamped to 0", repo.lastFilter.Offset)
	}
}

func TestErrorLogUpdate_PartialPatch(t *testing.T) {
	repo := newFakeErrorLogRepo()
	svc := newTestErrorLogService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, ErrorLogDraft{
		Message:  "original message",
		Project:  "api",
		Language: "go",
		Tags:     []string{"backend"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resolved := true
	updated, err := svc.Update(ctx, 1, created.ID, ErrorLogPatch{Resolved: &resolved})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Only the patched field changes.
	if !updated.Resolved {
		t.Error("Resolved should be true after patch")
	}
	if updated.Message != "original message" {
		t.Errorf("Message = %q, want untouched original", updated.Message)
	}
	if updated.Project != "api" {
		t.Errorf("Project = %q, want untouched original", updated.Project)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "backend" {
		t.Errorf("Tags = %v, want untouched original", updated.Tags)
	}
}

func TestErrorLogUpdate_EmptyMessageRejected(t *testing.T) {
	repo := newFakeErrorLogRepo()
	svc := newTestErrorLogService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, ErrorLogDraft{Message: "original"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	empty := "   "
	_, err = svc.Update(ctx, 1, created.ID, ErrorLogPatch{Message: &empty})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() with blank message error = %v, want ErrValidation", err)
	}

	// The stored record is untouched.
	log, err := svc.Get(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if log.Message != "original" {
		t.Errorf("Message = %q, want untouched original", log.Message)
	}
}

func TestErrorLogUpdate_ClearableFields(t *testing.T) {
	// An explicit empty string clears an optional field; that is different
	// from the field being absent.
	repo := newFakeErrorLogRepo()
	svc := newTestErrorLogService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, ErrorLogDraft{Message: "boom", Solution: "restart it"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cleared := ""
	updated, err := svc.Update(ctx, 1, created.ID, ErrorLogPatch{Solution: &cleared})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Solution != "" {
		t.Errorf("Solution = %q, want cleared", updated.Solution)
	}
}

func TestErrorLogUpdate_NotFound(t *testing.T) {
	svc := newTestErrorLogService(newFakeErrorLogRepo())

	message := "new"
	_, err := svc.Update(context.Background(), 1, 999, ErrorLogPatch{Message: &message})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestErrorLogUpdate_CrossUserIsNotFound(t *testing.T) {
	repo := newFakeErrorLogRepo()
	svc := newTestErrorLogService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, ErrorLogDraft{Message: "alice's"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resolved := true
	_, err = svc.Update(ctx, 2, created.ID, ErrorLogPatch{Resolved: &resolved})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() as another user error = %v, want ErrNotFound", err)
	}
}

func TestErrorLogDelete(t *testing.T) {
	repo := newFakeErrorLogRepo()
	svc := newTestErrorLogService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, ErrorLogDraft{Message: "bye"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, 1, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, 1, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestErrorLogDelete_NotFound(t *testing.T) {
	svc := newTestErrorLogService(newFakeErrorLogRepo())

	err := svc.Delete(context.Background(), 1, 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
