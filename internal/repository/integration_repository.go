package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

type integrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) interfaces.IntegrationRepository {
	return &integrationRepository{db: db}
}

func (r *integrationRepository) Create(ctx context.Context, integration *models.InboxIntegration) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "integrationRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, integration.CompanyID)

	if err := dbFor(ctx, r.db).Create(integration).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *integrationRepository) GetByID(ctx context.Context, companyID, id string) (*models.InboxIntegration, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "integrationRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var integration models.InboxIntegration
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND id = ?", companyID, id).
			First(&integration).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) GetPrimary(ctx context.Context, companyID string, t enum.IntegrationType) (*models.InboxIntegration, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "integrationRepository.GetPrimary")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)
	span.SetTag("integrationType", string(t))

	var integration models.InboxIntegration
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND integration_type = ? AND is_active = ?", companyID, t, true).
			Order("is_primary desc, created_at asc").
			First(&integration).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) ListActive(ctx context.Context, t enum.IntegrationType) ([]*models.InboxIntegration, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "integrationRepository.ListActive")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("integrationType", string(t))

	var integrations []*models.InboxIntegration
	err := dbFor(ctx, r.db).
		Where("integration_type = ? AND is_active = ?", t, true).
		Order("company_id asc").
		Find(&integrations).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return integrations, nil
}

func (r *integrationRepository) RecordSync(ctx context.Context, id string, syncedAt time.Time, errMessage string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "integrationRepository.RecordSync")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	updates := map[string]interface{}{
		"error_message": errMessage,
		"updated_at":    utils.Now(),
	}
	if errMessage == "" {
		updates["last_synced_at"] = syncedAt
	}
	err := dbFor(ctx, r.db).Model(&models.InboxIntegration{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
