package scheduler

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"statusping/internal/checker"
	"statusping/internal/models"
)

func setupScheduler(t *testing.T) (*Scheduler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Monitor{},
		&models.CheckResult{},
		&models.Incident{},
	))

	logger := zap.NewNop()
	chk := checker.New(db, 3, nil, logger)
	pruner := checker.NewPruner(db, logger)
	return New(db, chk, pruner, logger), db
}

func TestScheduleIsReplaceSafe(t *testing.T) {
	s, _ := setupScheduler(t)

	require.NoError(t, s.Schedule("monitor-1", 60))
	require.NoError(t, s.Schedule("monitor-1", 30))

	assert.True(t, s.Scheduled("monitor-1"))
	// Rescheduling replaces the entry instead of stacking a second one.
	assert.Len(t, s.cron.Entries(), 1)
}

func TestUnscheduleIsIdempotent(t *testing.T) {
	s, _ := setupScheduler(t)

	require.NoError(t, s.Schedule("monitor-1", 60))
	s.Unschedule("monitor-1")
	assert.False(t, s.Scheduled("monitor-1"))
	assert.Empty(t, s.cron.Entries())

	// Unscheduling an absent job is a no-op, not an error.
	s.Unschedule("monitor-1")
	s.Unschedule("never-scheduled")
}

func TestStartSchedulesActiveMonitorsOnly(t *testing.T) {
	s, db := setupScheduler(t)

	user := &models.User{
		Email:        "owner@example.com",
		PasswordHash: "x",
		Name:         "Owner",
		AccountSlug:  "owner",
		Plan:         "free",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	active := &models.Monitor{
		UserID:             user.ID,
		Name:               "Active",
		URL:                "http://example.com",
		Method:             "GET",
		CheckInterval:      300,
		Timeout:            30,
		ExpectedStatusCode: 200,
		IsActive:           true,
		CurrentStatus:      models.StatusUnknown,
	}
	inactive := &models.Monitor{
		UserID:             user.ID,
		Name:               "Inactive",
		URL:                "http://example.org",
		Method:             "GET",
		CheckInterval:      300,
		Timeout:            30,
		ExpectedStatusCode: 200,
		IsActive:           false,
		CurrentStatus:      models.StatusUnknown,
	}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(inactive).Error)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.True(t, s.Scheduled(active.ID))
	assert.False(t, s.Scheduled(inactive.ID))

	// One entry per active monitor plus the pruning job.
	assert.Len(t, s.cron.Entries(), 2)
}
