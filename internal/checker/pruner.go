package checker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"statusping/internal/models"
	"statusping/internal/plans"
)

// Pruner deletes check-result history older than each user's plan retention
// horizon.
type Pruner struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPruner creates a new Pruner
func NewPruner(db *gorm.DB, logger *zap.Logger) *Pruner {
	return &Pruner{db: db, logger: logger}
}

// PruneExpired removes expired check results for every user in one batch,
// committing once at the end. Re-running with nothing past cutoff deletes
// nothing.
func (p *Pruner) PruneExpired(ctx context.Context) error {
	var users []models.User
	if err := p.db.WithContext(ctx).Find(&users).Error; err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	var pruned int64
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, user := range users {
			limits := plans.ForPlan(user.Plan)
			cutoff := time.Now().UTC().Add(-time.Duration(limits.RetentionHours) * time.Hour)

			res := tx.Where("checked_at < ? AND monitor_id IN (?)",
				cutoff,
				tx.Model(&models.Monitor{}).Select("id").Where("user_id = ?", user.ID),
			).Delete(&models.CheckResult{})
			if res.Error != nil {
				return res.Error
			}
			pruned += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune check results: %w", err)
	}

	if pruned > 0 {
		p.logger.Info("pruned expired check results", zap.Int64("deleted", pruned))
	}
	return nil
}
