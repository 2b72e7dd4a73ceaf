package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRecentLimit bounds the history when no limit is configured
const DefaultRecentLimit = 20

// RecentRepo handles recently opened package records
type RecentRepo struct {
	db    *DB
	limit int
	now   func() time.Time
}

// NewRecentRepo creates a new recent package repository keeping at most limit entries
func NewRecentRepo(db *DB, limit int) *RecentRepo {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentRepo{db: db, limit: limit, now: time.Now}
}

// Touch records that the package at rootDir was opened, updating the existing
// entry for that directory if there is one
func (r *RecentRepo) Touch(rootDir string, pkg *models.PackageData) error {
	var model RecentPackageModel
	err := r.db.conn.Where("root_path = ?", rootDir).First(&model).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model = RecentPackageModel{ID: uuid.New().String(), RootPath: rootDir}
	case err != nil:
		return fmt.Errorf("failed to look up recent package: %w", err)
	}

	model.FolderName = pkg.FolderName
	model.PackageID = pkg.Metadata.ID
	model.PackageName = pkg.Metadata.Name
	model.PackageVersion = pkg.Metadata.Version
	model.WorkflowCount = len(pkg.Workflows)
	model.ScenarioCount = len(pkg.Scenarios)
	model.OpenedAt = r.now()

	if err := r.db.conn.Save(&model).Error; err != nil {
		return fmt.Errorf("failed to save recent package: %w", err)
	}

	return r.prune()
}

// prune drops the oldest entries beyond the limit
func (r *RecentRepo) prune() error {
	var ids []string
	if err := r.db.conn.Model(&RecentPackageModel{}).
		Order("opened_at DESC").
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) <= r.limit {
		return nil
	}
	return r.db.conn.Where("id IN ?", ids[r.limit:]).Delete(&RecentPackageModel{}).Error
}

// List returns the most recently opened packages first
func (r *RecentRepo) List(limit int) ([]*models.RecentPackage, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}

	var modelList []RecentPackageModel
	if err := r.db.conn.Order("opened_at DESC").Limit(limit).Find(&modelList).Error; err != nil {
		return nil, err
	}

	recent := make([]*models.RecentPackage, len(modelList))
	for i, model := range modelList {
		recent[i] = model.ToRecentPackage()
	}
	return recent, nil
}

// GetByID retrieves a recent package entry by ID
func (r *RecentRepo) GetByID(id string) (*models.RecentPackage, error) {
	var model RecentPackageModel
	if err := r.db.conn.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, fmt.Errorf("recent package not found")
	}
	return model.ToRecentPackage(), nil
}

// Delete removes a recent package entry
func (r *RecentRepo) Delete(id string) error {
	result := r.db.conn.Delete(&RecentPackageModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recent package not found")
	}
	return nil
}
