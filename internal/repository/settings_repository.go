package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
)

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) interfaces.SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns the settings row for a tenant, creating it with defaults on
// first access. The returned document is always normalized.
func (r *settingsRepository) Get(ctx context.Context, companyID string) (*models.CompanySettings, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.Get")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var settings models.CompanySettings
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).Where("company_id = ?", companyID).First(&settings).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.CompanySettings{
			CompanyID: companyID,
			Settings:  models.DefaultSettings(),
		}
		if err := dbFor(ctx, r.db).Create(&settings).Error; err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	settings.Settings.Normalize()
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.CompanySettings) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := dbFor(ctx, r.db).Save(settings).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
