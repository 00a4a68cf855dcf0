package conversation

import (
	"math"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/db"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/participant"
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

func seedAgent(t *testing.T, gormDB *gorm.DB) string {
	t.Helper()
	a := models.Agent{ID: "ag-1", Name: "v1", AgentConfig: "customerServiceRetail",
		AgentName: "Sales Agent", SystemPrompt: "p"}
	if err := gormDB.Create(&a).Error; err != nil {
		t.Fatal(err)
	}
	return a.ID
}

func mkOpts(agentID string, duration float64, taskCompleted *bool) CreateOpts {
	return CreateOpts{
		SessionID:     "sess-1",
		AgentConfig:   "customerServiceRetail",
		AgentName:     "Sales Agent",
		Transcript:    map[string]any{"items": []any{map[string]any{"role": "user", "text": "hi"}}},
		Duration:      duration,
		TurnCount:     4,
		AgentID:       agentID,
		TaskCompleted: taskCompleted,
	}
}

func boolPtr(b bool) *bool { return &b }

func TestCreate_RecomputesStats(t *testing.T) {
	gormDB := openTestDB(t)
	agentID := seedAgent(t, gormDB)

	// Durations [10, 20, 30], task_completed [true, false, nil]:
	// avg 20.0, success rate 50.0 (1 of 2 scored).
	for _, tc := range []struct {
		duration  float64
		completed *bool
	}{
		{10, boolPtr(true)},
		{20, boolPtr(false)},
		{30, nil},
	} {
		if _, err := Create(gormDB, mkOpts(agentID, tc.duration, tc.completed)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	var a models.Agent
	if err := gormDB.First(&a, "id = ?", agentID).Error; err != nil {
		t.Fatal(err)
	}
	if a.TotalRuns != 3 {
		t.Errorf("TotalRuns = %d, want 3", a.TotalRuns)
	}
	if a.AvgDuration == nil || math.Abs(*a.AvgDuration-20.0) > 1e-9 {
		t.Errorf("AvgDuration = %v, want 20.0", a.AvgDuration)
	}
	if a.SuccessRate == nil || math.Abs(*a.SuccessRate-50.0) > 1e-9 {
		t.Errorf("SuccessRate = %v, want 50.0", a.SuccessRate)
	}
}

func TestCreate_NoScoredLogsSkipsSuccessRate(t *testing.T) {
	gormDB := openTestDB(t)
	agentID := seedAgent(t, gormDB)

	if _, err := Create(gormDB, mkOpts(agentID, 10, nil)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var a models.Agent
	gormDB.First(&a, "id = ?", agentID)
	if a.SuccessRate != nil {
		t.Errorf("SuccessRate = %v, want nil while no scored logs exist", *a.SuccessRate)
	}
	if a.TotalRuns != 1 {
		t.Errorf("TotalRuns = %d, want 1", a.TotalRuns)
	}
	if a.AvgDuration == nil || *a.AvgDuration != 10 {
		t.Errorf("AvgDuration = %v, want 10", a.AvgDuration)
	}
}

func TestCreate_UnlinkedLogTouchesNoAgent(t *testing.T) {
	gormDB := openTestDB(t)
	agentID := seedAgent(t, gormDB)

	if _, err := Create(gormDB, mkOpts("", 10, boolPtr(true))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var a models.Agent
	gormDB.First(&a, "id = ?", agentID)
	if a.TotalRuns != 0 || a.AvgDuration != nil {
		t.Errorf("unlinked log changed agent stats: %+v", a)
	}
}

func TestCreate_UnknownAgentStillLogs(t *testing.T) {
	gormDB := openTestDB(t)

	log, err := Create(gormDB, mkOpts("ag-gone", 10, nil))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if log.AgentID == nil || *log.AgentID != "ag-gone" {
		t.Errorf("AgentID = %v", log.AgentID)
	}
}

func TestCreate_SatisfactionValidation(t *testing.T) {
	gormDB := openTestDB(t)
	agentID := seedAgent(t, gormDB)

	for _, score := range []int{0, 6, -1} {
		opts := mkOpts(agentID, 10, nil)
		opts.Satisfaction = &score
		if _, err := Create(gormDB, opts); !apperr.IsConflict(err) {
			t.Errorf("satisfaction %d: error = %v, want conflict", score, err)
		}
	}

	score := 5
	opts := mkOpts(agentID, 10, nil)
	opts.Satisfaction = &score
	if _, err := Create(gormDB, opts); err != nil {
		t.Errorf("satisfaction 5: %v", err)
	}
}

func TestCreate_RequiredFields(t *testing.T) {
	gormDB := openTestDB(t)

	opts := mkOpts("", 10, nil)
	opts.SessionID = ""
	if _, err := Create(gormDB, opts); !apperr.IsConflict(err) {
		t.Errorf("missing session_id: %v, want conflict", err)
	}

	opts = mkOpts("", 10, nil)
	opts.Transcript = nil
	if _, err := Create(gormDB, opts); !apperr.IsConflict(err) {
		t.Errorf("missing transcript: %v, want conflict", err)
	}
}

func TestCreate_ResolvesParticipantRef(t *testing.T) {
	gormDB := openTestDB(t)
	p, err := participant.Create(gormDB, participant.CreateOpts{ParticipantID: "P001"})
	if err != nil {
		t.Fatal(err)
	}

	opts := mkOpts("", 10, nil)
	opts.ParticipantRef = "P001"
	log, err := Create(gormDB, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if log.ParticipantID == nil || *log.ParticipantID != p.ID {
		t.Errorf("ParticipantID = %v, want internal id %q", log.ParticipantID, p.ID)
	}

	opts.ParticipantRef = "P404"
	if _, err := Create(gormDB, opts); !apperr.IsNotFound(err) {
		t.Errorf("unknown participant: %v, want not-found", err)
	}
}

func TestList_LimitClamping(t *testing.T) {
	gormDB := openTestDB(t)
	agentID := seedAgent(t, gormDB)
	for i := 0; i < 60; i++ {
		if _, err := Create(gormDB, mkOpts(agentID, float64(i), nil)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := List(gormDB, ListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != DefaultLimit {
		t.Errorf("default limit = %d logs, want %d", len(got), DefaultLimit)
	}

	got, err = List(gormDB, ListFilters{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("limit 10 = %d logs", len(got))
	}

	got, err = List(gormDB, ListFilters{Limit: 9999})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 60 {
		t.Errorf("oversized limit = %d logs, want all 60", len(got))
	}
}

func TestList_Filters(t *testing.T) {
	gormDB := openTestDB(t)
	agentID := seedAgent(t, gormDB)
	Create(gormDB, mkOpts(agentID, 10, nil))

	other := mkOpts("", 20, nil)
	other.AgentConfig = "frontDeskAuthentication"
	Create(gormDB, other)

	got, err := List(gormDB, ListFilters{AgentID: agentID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List by agent = %d, want 1", len(got))
	}

	got, err = List(gormDB, ListFilters{AgentConfig: "frontDeskAuthentication"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Duration != 20 {
		t.Errorf("List by config = %+v", got)
	}
}

func TestDelete(t *testing.T) {
	gormDB := openTestDB(t)
	log, err := Create(gormDB, mkOpts("", 10, nil))
	if err != nil {
		t.Fatal(err)
	}

	if err := Delete(gormDB, log.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(gormDB, log.ID); !apperr.IsNotFound(err) {
		t.Errorf("Get after delete = %v, want not-found", err)
	}
	if err := Delete(gormDB, log.ID); !apperr.IsNotFound(err) {
		t.Errorf("second Delete = %v, want not-found", err)
	}
}
