package checker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"statusping/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Monitor{},
		&models.CheckResult{},
		&models.Incident{},
		&models.StatusPage{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, plan string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Name:         "Test User",
		AccountSlug:  "test-" + uuid.NewString()[:8],
		Plan:         plan,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestMonitor(t *testing.T, db *gorm.DB, userID, url string) *models.Monitor {
	t.Helper()

	m := &models.Monitor{
		UserID:             userID,
		Name:               "API Server",
		URL:                url,
		Method:             "GET",
		CheckInterval:      300,
		Timeout:            5,
		ExpectedStatusCode: 200,
		IsActive:           true,
		IsPublic:           true,
		CurrentStatus:      models.StatusUnknown,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

// switchableServer serves the status code stored in code.
func switchableServer(code *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(code.Load()))
	}))
}

type recordedAlert struct {
	kind     string
	monitor  string
	err      string
	downtime time.Duration
}

// fakeSink records alerts synchronously for assertions.
type fakeSink struct {
	alerts []recordedAlert
}

func (f *fakeSink) MonitorDown(m models.Monitor, errorMessage string) {
	f.alerts = append(f.alerts, recordedAlert{kind: "down", monitor: m.Name, err: errorMessage})
}

func (f *fakeSink) MonitorRecovered(m models.Monitor, downtime time.Duration) {
	f.alerts = append(f.alerts, recordedAlert{kind: "recovery", monitor: m.Name, downtime: downtime})
}

func TestCheckLifecycle(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "free")

	var code atomic.Int32
	code.Store(200)
	server := switchableServer(&code)
	defer server.Close()

	m := createTestMonitor(t, db, user.ID, server.URL)

	sink := &fakeSink{}
	chk := New(db, 3, sink, zap.NewNop())
	ctx := context.Background()

	// First check succeeds: unknown -> up.
	require.NoError(t, chk.PerformCheck(ctx, m.ID))

	var got models.Monitor
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Equal(t, models.StatusUp, got.CurrentStatus)
	assert.Equal(t, 0, got.ConsecutiveFailures)
	assert.NotNil(t, got.LastCheckedAt)

	// Two failures stay below the threshold: status unchanged, no incident.
	code.Store(500)
	require.NoError(t, chk.PerformCheck(ctx, m.ID))
	require.NoError(t, chk.PerformCheck(ctx, m.ID))

	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Equal(t, models.StatusUp, got.CurrentStatus)
	assert.Equal(t, 2, got.ConsecutiveFailures)

	var incidentCount int64
	db.Model(&models.Incident{}).Where("monitor_id = ?", m.ID).Count(&incidentCount)
	assert.Equal(t, int64(0), incidentCount)
	assert.Empty(t, sink.alerts)

	// Third failure crosses the threshold: down, one ongoing incident.
	require.NoError(t, chk.PerformCheck(ctx, m.ID))

	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Equal(t, models.StatusDown, got.CurrentStatus)
	assert.Equal(t, 3, got.ConsecutiveFailures)

	var incidents []models.Incident
	require.NoError(t, db.Where("monitor_id = ?", m.ID).Find(&incidents).Error)
	require.Len(t, incidents, 1)
	assert.Equal(t, models.IncidentOngoing, incidents[0].Status)
	assert.Contains(t, incidents[0].Title, "API Server")
	assert.Nil(t, incidents[0].ResolvedAt)
	require.NotNil(t, incidents[0].ErrorMessage)
	assert.Equal(t, "Expected status 200, got 500", *incidents[0].ErrorMessage)

	require.Len(t, sink.alerts, 1)
	assert.Equal(t, "down", sink.alerts[0].kind)
	assert.Equal(t, "API Server", sink.alerts[0].monitor)

	// Recovery resolves the incident and resets the counter.
	code.Store(200)
	require.NoError(t, chk.PerformCheck(ctx, m.ID))

	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Equal(t, models.StatusUp, got.CurrentStatus)
	assert.Equal(t, 0, got.ConsecutiveFailures)

	require.NoError(t, db.Where("monitor_id = ?", m.ID).Find(&incidents).Error)
	require.Len(t, incidents, 1)
	assert.Equal(t, models.IncidentResolved, incidents[0].Status)
	require.NotNil(t, incidents[0].ResolvedAt)
	assert.False(t, incidents[0].ResolvedAt.Before(incidents[0].StartedAt))

	require.Len(t, sink.alerts, 2)
	assert.Equal(t, "recovery", sink.alerts[1].kind)
	assert.GreaterOrEqual(t, sink.alerts[1].downtime, time.Duration(0))

	// Five check results were recorded along the way.
	var resultCount int64
	db.Model(&models.CheckResult{}).Where("monitor_id = ?", m.ID).Count(&resultCount)
	assert.Equal(t, int64(5), resultCount)
}

func TestCheckDownFromStartOpensNoIncident(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "free")

	var code atomic.Int32
	code.Store(503)
	server := switchableServer(&code)
	defer server.Close()

	m := createTestMonitor(t, db, user.ID, server.URL)

	chk := New(db, 3, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, chk.PerformCheck(ctx, m.ID))
	}

	var got models.Monitor
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Equal(t, models.StatusDown, got.CurrentStatus)
	assert.Equal(t, 3, got.ConsecutiveFailures)

	// The monitor was never up, so no incident is opened.
	var incidentCount int64
	db.Model(&models.Incident{}).Where("monitor_id = ?", m.ID).Count(&incidentCount)
	assert.Equal(t, int64(0), incidentCount)
}

func TestCheckInactiveMonitorIsNoop(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "free")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := createTestMonitor(t, db, user.ID, server.URL)
	require.NoError(t, db.Model(m).Update("is_active", false).Error)

	chk := New(db, 3, nil, zap.NewNop())
	require.NoError(t, chk.PerformCheck(context.Background(), m.ID))

	var resultCount int64
	db.Model(&models.CheckResult{}).Where("monitor_id = ?", m.ID).Count(&resultCount)
	assert.Equal(t, int64(0), resultCount)

	var got models.Monitor
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Nil(t, got.LastCheckedAt)
	assert.Equal(t, models.StatusUnknown, got.CurrentStatus)
}

func TestCheckMissingMonitorIsNoop(t *testing.T) {
	db := setupTestDB(t)

	chk := New(db, 3, nil, zap.NewNop())
	assert.NoError(t, chk.PerformCheck(context.Background(), "no-such-monitor"))
}
