package meeting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/quantummeet/quantummeet/internal/db"
	"github.com/quantummeet/quantummeet/internal/models"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMeetingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gormDB
}

func seedAgent(t *testing.T, gormDB *gorm.DB, userID, name string) models.Agent {
	t.Helper()
	a := models.Agent{Name: name, Instructions: "Take notes", UserID: userID}
	require.NoError(t, gormDB.Create(&a).Error)
	return a
}

// seedMeetings inserts n meetings for the agent's owner named "<prefix> NN",
// one minute apart.
func seedMeetings(t *testing.T, gormDB *gorm.DB, a models.Agent, prefix string, n int) []models.Meeting {
	t.Helper()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	meetings := make([]models.Meeting, n)
	for i := range meetings {
		meetings[i] = models.Meeting{
			Name:      fmt.Sprintf("%s %02d", prefix, i+1),
			AgentID:   a.ID,
			UserID:    a.UserID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, gormDB.Create(&meetings[i]).Error)
	}
	return meetings
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	a := seedAgent(t, gormDB, "alice", "Scribe")

	row, err := Create(context.Background(), gormDB, "alice", CreateInput{Name: " Standup ", AgentID: a.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, "Standup", row.Name)
	assert.Equal(t, "alice", row.UserID)
	assert.Equal(t, models.MeetingUpcoming, row.Status)
	assert.Nil(t, row.Duration)
}

func TestCreate_AgentMustBeOwned(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	a := seedAgent(t, gormDB, "alice", "Scribe")

	_, err := Create(context.Background(), gormDB, "bob", CreateInput{Name: "Standup", AgentID: a.ID})
	assert.True(t, rpc.IsNotFound(err), "want NOT_FOUND, got %v", err)

	var count int64
	gormDB.Model(&models.Meeting{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreate_Validation(t *testing.T) {
	gormDB := openMeetingTestDB(t)

	_, err := Create(context.Background(), gormDB, "alice", CreateInput{Name: "Standup"})
	require.Error(t, err)
	assert.Equal(t, rpc.CodeBadRequest, rpc.CodeOf(err))
	assert.Contains(t, err.Error(), "agentId is required")
}

func TestGetMany_PaginationAndOwnership(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	alice := seedAgent(t, gormDB, "alice", "Scribe")
	bob := seedAgent(t, gormDB, "bob", "Other")
	seedMeetings(t, gormDB, alice, "Sync", 15)
	seedMeetings(t, gormDB, bob, "Sync", 4)

	page, err := GetMany(context.Background(), gormDB, "alice", ListInput{PageInput: rpc.NewPageInput(2, 10, "")})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(15), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	for _, m := range page.Items {
		assert.Equal(t, "alice", m.UserID)
		require.NotNil(t, m.Agent)
		assert.Equal(t, "Scribe", m.Agent.Name)
	}
	// Page two holds the oldest five.
	assert.Equal(t, "Sync 05", page.Items[0].Name)
	assert.Equal(t, "Sync 01", page.Items[4].Name)
}

func TestGetMany_SearchCaseInsensitive(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	for _, name := range []string{"Weekly Review", "review of Q3", "Planning"} {
		_, err := Create(ctx, gormDB, "alice", CreateInput{Name: name, AgentID: a.ID})
		require.NoError(t, err)
	}

	page, err := GetMany(ctx, gormDB, "alice", ListInput{PageInput: rpc.NewPageInput(1, 10, "REVIEW")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)
}

func TestGetMany_SearchNonASCII(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	for _, name := range []string{"Ärzte Sync", "Planning"} {
		_, err := Create(ctx, gormDB, "alice", CreateInput{Name: name, AgentID: a.ID})
		require.NoError(t, err)
	}

	for _, search := range []string{"ärzte", "ÄRZTE", "Ärzte", "sync"} {
		page, err := GetMany(ctx, gormDB, "alice", ListInput{PageInput: rpc.NewPageInput(1, 10, search)})
		require.NoError(t, err)
		require.Len(t, page.Items, 1, "search %q", search)
		assert.Equal(t, "Ärzte Sync", page.Items[0].Name)
		assert.Equal(t, int64(1), page.Total, "search %q", search)
	}
}

func TestUpdate_RenameUpdatesSearch(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	_, err := Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, Name: strPtr("Überblick")})
	require.NoError(t, err)

	page, err := GetMany(ctx, gormDB, "alice", ListInput{PageInput: rpc.NewPageInput(1, 10, "ÜBER")})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, m.ID, page.Items[0].ID)

	page, err = GetMany(ctx, gormDB, "alice", ListInput{PageInput: rpc.NewPageInput(1, 10, "sync")})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestGetMany_Filters(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	scribe := seedAgent(t, gormDB, "alice", "Scribe")
	coach := seedAgent(t, gormDB, "alice", "Coach")
	seedMeetings(t, gormDB, scribe, "Scribe call", 3)
	coached := seedMeetings(t, gormDB, coach, "Coach call", 2)
	require.NoError(t, gormDB.Model(&coached[0]).Update("status", models.MeetingCompleted).Error)

	page, err := GetMany(ctx, gormDB, "alice", ListInput{AgentID: strPtr(coach.ID)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = GetMany(ctx, gormDB, "alice", ListInput{Status: strPtr(models.MeetingCompleted)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, coached[0].ID, page.Items[0].ID)

	_, err = GetMany(ctx, gormDB, "alice", ListInput{Status: strPtr("paused")})
	assert.Equal(t, rpc.CodeBadRequest, rpc.CodeOf(err))
}

func TestGetMany_Empty(t *testing.T) {
	gormDB := openMeetingTestDB(t)

	page, err := GetMany(context.Background(), gormDB, "alice", ListInput{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
}

func TestGetOne(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	row, err := GetOne(ctx, gormDB, "alice", GetOneInput{ID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, "Sync 01", row.Name)
	require.NotNil(t, row.Agent)
	assert.Equal(t, a.ID, row.Agent.ID)

	_, err = GetOne(ctx, gormDB, "bob", GetOneInput{ID: m.ID})
	assert.True(t, rpc.IsNotFound(err))
	assert.Contains(t, err.Error(), "Meeting not found")
}

func TestGetOne_Delay(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	start := time.Now()
	_, err := GetOne(context.Background(), gormDB, "alice", GetOneInput{ID: m.ID}, WithDelay(50*time.Millisecond))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = GetOne(ctx, gormDB, "alice", GetOneInput{ID: m.ID}, WithDelay(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpdate(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	started := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(90 * time.Second)
	status := models.MeetingCompleted
	row, err := Update(ctx, gormDB, "alice", UpdateInput{
		ID:        m.ID,
		Status:    &status,
		StartedAt: &started,
		EndedAt:   &ended,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sync 01", row.Name, "name must be unchanged")
	assert.Equal(t, models.MeetingCompleted, row.Status)
	require.NotNil(t, row.Duration)
	assert.InDelta(t, 90.0, *row.Duration, 0.001)
}

func TestUpdate_NotOwned_NoMutation(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	_, err := Update(ctx, gormDB, "bob", UpdateInput{ID: m.ID, Name: strPtr("Hijacked")})
	assert.True(t, rpc.IsNotFound(err))

	var stored models.Meeting
	require.NoError(t, gormDB.First(&stored, "id = ?", m.ID).Error)
	assert.Equal(t, "Sync 01", stored.Name)
}

func TestUpdate_ReassignAgent(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	scribe := seedAgent(t, gormDB, "alice", "Scribe")
	coach := seedAgent(t, gormDB, "alice", "Coach")
	foreign := seedAgent(t, gormDB, "bob", "Foreign")
	m := seedMeetings(t, gormDB, scribe, "Sync", 1)[0]

	row, err := Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, AgentID: &coach.ID})
	require.NoError(t, err)
	assert.Equal(t, coach.ID, row.AgentID)
	require.NotNil(t, row.Agent)
	assert.Equal(t, "Coach", row.Agent.Name)

	_, err = Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, AgentID: &foreign.ID})
	assert.True(t, rpc.IsNotFound(err))
}

func TestUpdate_Validation(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	_, err := Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, Status: strPtr("paused")})
	assert.Equal(t, rpc.CodeBadRequest, rpc.CodeOf(err))

	started := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(-time.Minute)
	_, err = Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, StartedAt: &started, EndedAt: &ended})
	assert.Equal(t, rpc.CodeBadRequest, rpc.CodeOf(err))
}

func TestUpdate_EndBeforeStoredStart(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	ctx := context.Background()
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	started := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	_, err := Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, StartedAt: &started})
	require.NoError(t, err)

	early := started.Add(-time.Hour)
	_, err = Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, EndedAt: &early})
	assert.Equal(t, rpc.CodeBadRequest, rpc.CodeOf(err))

	var stored models.Meeting
	require.NoError(t, gormDB.First(&stored, "id = ?", m.ID).Error)
	assert.Nil(t, stored.EndedAt, "rejected update must not be written")

	ended := started.Add(30 * time.Minute)
	row, err := Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, EndedAt: &ended})
	require.NoError(t, err)
	require.NotNil(t, row.Duration)
	assert.InDelta(t, 1800.0, *row.Duration, 0.001)

	late := ended.Add(time.Minute)
	_, err = Update(ctx, gormDB, "alice", UpdateInput{ID: m.ID, StartedAt: &late})
	assert.Equal(t, rpc.CodeBadRequest, rpc.CodeOf(err))
}

func TestUpdate_EndWithoutStart(t *testing.T) {
	gormDB := openMeetingTestDB(t)
	a := seedAgent(t, gormDB, "alice", "Scribe")
	m := seedMeetings(t, gormDB, a, "Sync", 1)[0]

	ended := time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC)
	row, err := Update(context.Background(), gormDB, "alice", UpdateInput{ID: m.ID, EndedAt: &ended})
	require.NoError(t, err)
	assert.Nil(t, row.Duration)
}
