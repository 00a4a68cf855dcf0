package user

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

func TestCreate_HashesPassword(t *testing.T) {
	gormDB := openTestDB(t)
	u, err := Create(gormDB, CreateOpts{Username: "kai", Email: "kai@example.edu", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.PasswordHash == "hunter2" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
	if u.Role != RoleExperimenter {
		t.Errorf("Role = %q, want default experimenter", u.Role)
	}
	if !u.IsActive {
		t.Error("IsActive = false on create")
	}
}

func TestCreate_Duplicates(t *testing.T) {
	gormDB := openTestDB(t)
	if _, err := Create(gormDB, CreateOpts{Username: "kai", Email: "kai@example.edu", Password: "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(gormDB, CreateOpts{Username: "kai", Email: "other@example.edu", Password: "x"}); !apperr.IsConflict(err) {
		t.Errorf("duplicate username = %v, want conflict", err)
	}
	if _, err := Create(gormDB, CreateOpts{Username: "other", Email: "kai@example.edu", Password: "x"}); !apperr.IsConflict(err) {
		t.Errorf("duplicate email = %v, want conflict", err)
	}
}

func TestCreate_BadRole(t *testing.T) {
	gormDB := openTestDB(t)
	if _, err := Create(gormDB, CreateOpts{Username: "k", Email: "k@x", Password: "p", Role: "superuser"}); !apperr.IsConflict(err) {
		t.Errorf("bad role = %v, want conflict", err)
	}
}

func TestUpdate_RehashAndRole(t *testing.T) {
	gormDB := openTestDB(t)
	u, _ := Create(gormDB, CreateOpts{Username: "kai", Email: "kai@example.edu", Password: "old"})

	newPassword := "new"
	role := RoleAdmin
	got, err := Update(gormDB, "kai", UpdateOpts{Password: &newPassword, Role: &role})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %q", got.Role)
	}
	if got.PasswordHash == u.PasswordHash {
		t.Error("password hash unchanged after update")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("new")); err != nil {
		t.Errorf("new hash does not verify: %v", err)
	}
}

func TestGetDelete(t *testing.T) {
	gormDB := openTestDB(t)
	u, _ := Create(gormDB, CreateOpts{Username: "kai", Email: "kai@example.edu", Password: "p"})

	byName, err := Get(gormDB, "kai")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("Get by username = %v, %v", byName, err)
	}

	if err := Delete(gormDB, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(gormDB, u.ID); !apperr.IsNotFound(err) {
		t.Errorf("Get after delete = %v, want not-found", err)
	}
}
