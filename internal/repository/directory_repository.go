package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/branch-workshop/service-booking/internal/common/domain"
	"github.com/branch-workshop/service-booking/internal/domain/directory"
)

// BayModel is the GORM read model for the bays table.
type BayModel struct {
	ID        int64  `gorm:"primaryKey"`
	BayName   string `gorm:"not null;size:100"`
	BayNumber string `gorm:"not null;size:20"`
	Status    string `gorm:"not null;size:20"`
}

// TableName returns the table name for the GORM model.
func (BayModel) TableName() string {
	return "bays"
}

// ServiceAdvisorModel is the GORM read model for the service_advisors table.
type ServiceAdvisorModel struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"not null;size:100"`
	Status string `gorm:"not null;size:20"`
}

// TableName returns the table name for the GORM model.
func (ServiceAdvisorModel) TableName() string {
	return "service_advisors"
}

// StoppageReasonModel is the GORM read model for the stoppage_reasons table.
type StoppageReasonModel struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"not null;size:255;uniqueIndex"`
}

// TableName returns the table name for the GORM model.
func (StoppageReasonModel) TableName() string {
	return "stoppage_reasons"
}

// GormDirectory resolves bays, advisors and stoppage reasons from the shared workshop tables.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a new GormDirectory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// ResolveBay looks a bay up by id.
func (d *GormDirectory) ResolveBay(ctx context.Context, id int64) (*directory.BaySnapshot, error) {
	var model BayModel
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Bay", strconv.FormatInt(id, 10))
		}
		return nil, translateError(err, "failed to resolve bay")
	}
	return &directory.BaySnapshot{
		ID:          model.ID,
		DisplayName: model.BayName,
		Number:      model.BayNumber,
		Status:      model.Status,
	}, nil
}

// ResolveAdvisor looks a service advisor up by id.
func (d *GormDirectory) ResolveAdvisor(ctx context.Context, id int64) (*directory.AdvisorSnapshot, error) {
	var model ServiceAdvisorModel
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Service advisor", strconv.FormatInt(id, 10))
		}
		return nil, translateError(err, "failed to resolve service advisor")
	}
	return &directory.AdvisorSnapshot{ID: model.ID, Name: model.Name, Status: model.Status}, nil
}

// ListStoppageReasons returns the catalogue ordered by id.
func (d *GormDirectory) ListStoppageReasons(ctx context.Context) ([]directory.StoppageReason, error) {
	var models []StoppageReasonModel
	if err := d.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, translateError(err, "failed to list stoppage reasons")
	}
	reasons := make([]directory.StoppageReason, len(models))
	for i, m := range models {
		reasons[i] = directory.StoppageReason{ID: m.ID, Name: m.Name}
	}
	return reasons, nil
}
