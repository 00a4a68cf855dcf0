package participant

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/db"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
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

func TestCreate_AndGetByEitherID(t *testing.T) {
	gormDB := openTestDB(t)
	p, err := Create(gormDB, CreateOpts{ParticipantID: "P001", Name: "Ada"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == p.ParticipantID {
		t.Error("internal and external ids must differ")
	}

	byInternal, err := Get(gormDB, p.ID)
	if err != nil {
		t.Fatalf("Get by internal id: %v", err)
	}
	byExternal, err := Get(gormDB, "P001")
	if err != nil {
		t.Fatalf("Get by external id: %v", err)
	}
	if byInternal.ID != byExternal.ID {
		t.Error("internal and external lookups resolved different rows")
	}
}

func TestCreate_DuplicateExternalID(t *testing.T) {
	gormDB := openTestDB(t)
	if _, err := Create(gormDB, CreateOpts{ParticipantID: "P001"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(gormDB, CreateOpts{ParticipantID: "P001"}); !apperr.IsConflict(err) {
		t.Errorf("duplicate Create error = %v, want conflict", err)
	}
}

func TestCreate_MissingExternalID(t *testing.T) {
	gormDB := openTestDB(t)
	if _, err := Create(gormDB, CreateOpts{Name: "nobody"}); !apperr.IsConflict(err) {
		t.Errorf("Create error = %v, want conflict", err)
	}
}

func TestResolve(t *testing.T) {
	gormDB := openTestDB(t)
	p, _ := Create(gormDB, CreateOpts{ParticipantID: "P001"})

	got, err := Resolve(gormDB, "P001")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != p.ID {
		t.Errorf("Resolve = %q, want internal id %q", got, p.ID)
	}

	if _, err := Resolve(gormDB, "P404"); !apperr.IsNotFound(err) {
		t.Errorf("Resolve unknown = %v, want not-found", err)
	}
}

func TestList_GuestFilter(t *testing.T) {
	gormDB := openTestDB(t)
	Create(gormDB, CreateOpts{ParticipantID: "P001"})
	Create(gormDB, CreateOpts{ParticipantID: "G001", IsGuest: true})
	Create(gormDB, CreateOpts{ParticipantID: "G002", IsGuest: true})

	all, err := List(gormDB, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List all = %d, want 3", len(all))
	}

	guest := true
	guests, err := List(gormDB, &guest)
	if err != nil {
		t.Fatalf("List guests: %v", err)
	}
	if len(guests) != 2 {
		t.Errorf("List guests = %d, want 2", len(guests))
	}
}

func TestUpdate_PartialPatch(t *testing.T) {
	gormDB := openTestDB(t)
	p, _ := Create(gormDB, CreateOpts{ParticipantID: "P001", Name: "Ada", Email: "ada@example.edu"})

	name := "Ada L."
	got, err := Update(gormDB, p.ID, UpdateOpts{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Ada L." {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Email != "ada@example.edu" {
		t.Errorf("patch clobbered email: %q", got.Email)
	}
}

func TestDelete_CascadesAssignments(t *testing.T) {
	gormDB := openTestDB(t)
	p, _ := Create(gormDB, CreateOpts{ParticipantID: "P001"})

	agent := models.Agent{ID: "ag-1", Name: "a", AgentConfig: "c", AgentName: "n", SystemPrompt: "p"}
	if err := gormDB.Create(&agent).Error; err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		assign := models.Assignment{
			ID: "as-" + string(rune('a'+i)), ParticipantID: p.ID, AgentID: agent.ID,
			AgentConfig: "c", AgentName: "n", Order: i,
		}
		if err := gormDB.Create(&assign).Error; err != nil {
			t.Fatal(err)
		}
	}

	if err := Delete(gormDB, "P001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var remaining int64
	gormDB.Model(&models.Assignment{}).Where("participant_id = ?", p.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("assignments remaining after cascade = %d, want 0", remaining)
	}
	if _, err := Get(gormDB, p.ID); !apperr.IsNotFound(err) {
		t.Errorf("Get after delete = %v, want not-found", err)
	}
}

func TestConversations(t *testing.T) {
	gormDB := openTestDB(t)
	p, _ := Create(gormDB, CreateOpts{ParticipantID: "P001"})

	for _, id := range []string{"log-1", "log-2"} {
		log := models.ConversationLog{
			ID: id, ParticipantID: &p.ID, SessionID: "s-" + id,
			AgentConfig: "c", AgentName: "n",
			Transcript: map[string]any{"items": []any{}}, Duration: 10, TurnCount: 2,
		}
		if err := gormDB.Create(&log).Error; err != nil {
			t.Fatal(err)
		}
	}

	logs, err := Conversations(gormDB, "P001")
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("Conversations = %d logs, want 2", len(logs))
	}

	if _, err := Conversations(gormDB, "P404"); !apperr.IsNotFound(err) {
		t.Errorf("Conversations unknown = %v, want not-found", err)
	}
}
