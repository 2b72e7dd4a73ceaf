package database

import (
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

// RecentPackageModel represents a recently opened package directory
type RecentPackageModel struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)"`
	RootPath       string    `gorm:"uniqueIndex;type:varchar(768);not null"`
	FolderName     string    `gorm:"type:varchar(255)"`
	PackageID      string    `gorm:"type:varchar(255);index"`
	PackageName    string    `gorm:"type:varchar(255)"`
	PackageVersion string    `gorm:"type:varchar(50)"`
	WorkflowCount  int       `gorm:"not null;default:0"`
	ScenarioCount  int       `gorm:"not null;default:0"`
	OpenedAt       time.Time `gorm:"index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (RecentPackageModel) TableName() string {
	return "recent_packages"
}

// ToRecentPackage converts RecentPackageModel to models.RecentPackage
func (m *RecentPackageModel) ToRecentPackage() *models.RecentPackage {
	return &models.RecentPackage{
		ID:             m.ID,
		RootPath:       m.RootPath,
		FolderName:     m.FolderName,
		PackageID:      m.PackageID,
		PackageName:    m.PackageName,
		PackageVersion: m.PackageVersion,
		WorkflowCount:  m.WorkflowCount,
		ScenarioCount:  m.ScenarioCount,
		OpenedAt:       m.OpenedAt,
	}
}

// FromRecentPackage converts models.RecentPackage to RecentPackageModel
func FromRecentPackage(p *models.RecentPackage) *RecentPackageModel {
	return &RecentPackageModel{
		ID:             p.ID,
		RootPath:       p.RootPath,
		FolderName:     p.FolderName,
		PackageID:      p.PackageID,
		PackageName:    p.PackageName,
		PackageVersion: p.PackageVersion,
		WorkflowCount:  p.WorkflowCount,
		ScenarioCount:  p.ScenarioCount,
		OpenedAt:       p.OpenedAt,
	}
}
