package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
)

func createTestErrorLog(t *testing.T, db *DB, userID int64, message string) *model.ErrorLog {
	t.Helper()
	log := &model.ErrorLog{UserID: userID, Message: message}
	if err := db.ErrorLogs().Create(context.Background(), log); err != nil {
		t.Fatalf("failed to create test error log: %v", err)
	}
	return log
}

func TestErrorLogCreate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")

	log := &model.ErrorLog{
		UserID:       user.ID,
		Message:      "TypeError: undefined is not a function",
		ErrorType:    "TypeError",
		Project:      "frontend",
		GitBranch:    "main",
		GitCommit:    "0123456789abcdef0123456789abcdef01234567",
		OS:           "linux",
		Language:     "javascript",
		Tags:         []string{"ui", "regression"},
		Solution:     "guard the callback",
		Notes:        "seen twice this week",
		TimeToFixMin: 30,
		Resolved:     true,
	}

	if err := db.ErrorLogs().Create(context.Background(), log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.ID == 0 {
		t.Error("Create() did not set log.ID")
	}
	if log.CreatedAt.IsZero() {
		t.Error("Create() did not set log.CreatedAt")
	}
	if log.UpdatedAt != nil {
		t.Error("Create() should leave UpdatedAt nil until the first update")
	}

	found, err := db.ErrorLogs().GetByID(context.Background(), log.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Message != log.Message {
		t.Errorf("Message = %q, want %q", found.Message, log.Message)
	}
	if len(found.Tags) != 2 || found.Tags[0] != "ui" || found.Tags[1] != "regression" {
		t.Errorf("Tags = %v, want [ui regression]", found.Tags)
	}
	if !found.Resolved {
		t.Error("Resolved should round-trip as true")
	}
	if found.TimeToFixMin != 30 {
		t.Errorf("TimeToFixMin = %d, want 30", found.TimeToFixMin)
	}
}

func TestErrorLogGetByID_OwnershipScoped(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, 1, "alice")
	bob := createTestUser(t, db, 2, "bob")

	log := createTestErrorLog(t, db, alice.ID, "alice's error")

	// Bob asking for Alice's record gets the same NotFound as asking for a
	// record that does not exist at all.
	_, err := db.ErrorLogs().GetByID(context.Background(), log.ID, bob.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() cross-user error = %v, want ErrNotFound", err)
	}

	_, err = db.ErrorLogs().GetByID(context.Background(), 99999, bob.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() missing record error = %v, want ErrNotFound", err)
	}
}

func TestErrorLogList_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, 1, "alice")
	bob := createTestUser(t, db, 2, "bob")

	createTestErrorLog(t, db, alice.ID, "a1")
	createTestErrorLog(t, db, alice.ID, "a2")
	createTestErrorLog(t, db, bob.ID, "b1")

	logs, err := db.ErrorLogs().List(context.Background(), alice.ID, repository.ErrorLogFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("List() returned %d logs, want 2", len(logs))
	}
	for _, log := range logs {
		if log.UserID != alice.ID {
			t.Errorf("List() leaked a record owned by user %d", log.UserID)
		}
	}
}

func TestErrorLogList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")

	first := createTestErrorLog(t, db, user.ID, "first")
	second := createTestErrorLog(t, db, user.ID, "second")
	third := createTestErrorLog(t, db, user.ID, "third")

	logs, err := db.ErrorLogs().List(context.Background(), user.ID, repository.ErrorLogFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("List() returned %d logs, want 3", len(logs))
	}
	if logs[0].ID != third.ID || logs[1].ID != second.ID || logs[2].ID != first.ID {
		t.Errorf("List() order = [%d %d %d], want [%d %d %d]",
			logs[0].ID, logs[1].ID, logs[2].ID, third.ID, second.ID, first.ID)
	}
}

func TestErrorLogList_Filters(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	ctx := context.Background()

	seed := []model.ErrorLog{
		{UserID: user.ID, Message: "nil deref", Project: "api", Language: "go", ErrorType: "panic", Tags: []string{"backend"}, Resolved: true},
		{UserID: user.ID, Message: "timeout", Project: "api", Language: "go", ErrorType: "timeout", Tags: []string{"backend", "flaky"}},
		{UserID: user.ID, Message: "undefined var", Project: "web", Language: "javascript", ErrorType: "ReferenceError", Tags: []string{"frontend"}},
	}
	for i := range seed {
		if err := db.ErrorLogs().Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create() seed %d error = %v", i, err)
		}
	}

	list := func(t *testing.T, filter repository.ErrorLogFilter) []model.ErrorLog {
		t.Helper()
		logs, err := db.ErrorLogs().List(ctx, user.ID, filter)
		if err != nil {
			t.Fatalf("List(%+v) error = %v", filter, err)
		}
		return logs
	}

	if got := list(t, repository.ErrorLogFilter{Project: "api"}); len(got) != 2 {
		t.Errorf("project=api returned %d logs, want 2", len(got))
	}
	if got := list(t, repository.ErrorLogFilter{Language: "javascript"}); len(got) != 1 {
		t.Errorf("language=javascript returned %d logs, want 1", len(got))
	}
	if got := list(t, repository.ErrorLogFilter{ErrorType: "timeout"}); len(got) != 1 {
		t.Errorf("error_type=timeout returned %d logs, want 1", len(got))
	}
	if got := list(t, repository.ErrorLogFilter{Tag: "backend"}); len(got) != 2 {
		t.Errorf("tag=backend returned %d logs, want 2", len(got))
	}
	if got := list(t, repository.ErrorLogFilter{Tag: "flaky"}); len(got) != 1 {
		t.Errorf("tag=flaky returned %d logs, want 1", len(got))
	}

	resolved := true
	if got := list(t, repository.ErrorLogFilter{Resolved: &resolved}); len(got) != 1 {
		t.Errorf("resolved=true returned %d logs, want 1", len(got))
	}
	unresolved := false
	if got := list(t, repository.ErrorLogFilter{Resolved: &unresolved}); len(got) != 2 {
		t.Errorf("resolved=false returned %d logs, want 2", len(got))
	}

	// Filters compose with AND.
	if got := list(t, repository.ErrorLogFilter{Project: "api", Resolved: &unresolved}); len(got) != 1 {
		t.Errorf("project=api&resolved=false returned %d logs, want 1", len(got))
	}
	if got := list(t, repository.ErrorLogFilter{Project: "api", Tag: "frontend"}); len(got) != 0 {
		t.Errorf("project=api&tag=frontend returned %d logs, want 0", len(got))
	}
}

func TestErrorLogList_Pagination(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")

	for i := 0; i < 5; i++ {
		createTestErrorLog(t, db, user.ID, "err")
	}

	page1, err := db.ErrorLogs().List(context.Background(), user.ID, repository.ErrorLogFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List() page 1 error = %v", err)
	}
	page2, err := db.ErrorLogs().List(context.Background(), user.ID, repository.ErrorLogFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() page 2 error = %v", err)
	}
	page3, err := db.ErrorLogs().List(context.Background(), user.ID, repository.ErrorLogFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() page 3 error = %v", err)
	}

	if len(page1) != 2 || len(page2) != 2 || len(page3) != 1 {
		t.Errorf("page sizes = %d/%d/%d, want 2/2/1", len(page1), len(page2), len(page3))
	}
	if page1[0].ID == page2[0].ID {
		t.Error("pages overlap: same first record on page 1 and page 2")
	}
}

func TestErrorLogUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	log := createTestErrorLog(t, db, user.ID, "original")

	log.Message = "updated"
	log.Resolved = true
	log.Tags = []string{"fixed"}

	if err := db.ErrorLogs().Update(context.Background(), log); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if log.UpdatedAt == nil {
		t.Error("Update() should set UpdatedAt")
	}

	found, err := db.ErrorLogs().GetByID(context.Background(), log.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByID() after update error = %v", err)
	}
	if found.Message != "updated" {
		t.Errorf("Message = %q, want %q", found.Message, "updated")
	}
	if !found.Resolved {
		t.Error("Resolved should be true after update")
	}
	if len(found.Tags) != 1 || found.Tags[0] != "fixed" {
		t.Errorf("Tags = %v, want [fixed]", found.Tags)
	}
	if found.UpdatedAt == nil {
		t.Error("UpdatedAt should persist after update")
	}
}

func TestErrorLogUpdate_CrossUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, 1, "alice")
	bob := createTestUser(t, db, 2, "bob")
	log := createTestErrorLog(t, db, alice.ID, "alice's error")

	stolen := *log
	stolen.UserID = bob.ID
	stolen.Message = "tampered"

	err := db.ErrorLogs().Update(context.Background(), &stolen)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() cross-user error = %v, want ErrNotFound", err)
	}

	// Alice's record is untouched.
	found, err := db.ErrorLogs().GetByID(context.Background(), log.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Message != "alice's error" {
		t.Errorf("Message = %q, want untouched original", found.Message)
	}
}

func TestErrorLogDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	log := createTestErrorLog(t, db, user.ID, "to delete")

	if err := db.ErrorLogs().Delete(context.Background(), log.ID, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.ErrorLogs().GetByID(context.Background(), log.ID, user.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestErrorLogDelete_CrossUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, 1, "alice")
	bob := createTestUser(t, db, 2, "bob")
	log := createTestErrorLog(t, db, alice.ID, "alice's error")

	err := db.ErrorLogs().Delete(context.Background(), log.ID, bob.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() cross-user error = %v, want ErrNotFound", err)
	}

	if _, err := db.ErrorLogs().GetByID(context.Background(), log.ID, alice.ID); err != nil {
		t.Errorf("record should survive a cross-user delete attempt: %v", err)
	}
}
