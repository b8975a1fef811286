package repository

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

type followUpRepository struct {
	db *gorm.DB
}

func NewFollowUpRepository(db *gorm.DB) interfaces.FollowUpRepository {
	return &followUpRepository{db: db}
}

func (r *followUpRepository) Create(ctx context.Context, followUp *models.FollowUp) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, followUp.CompanyID)

	if err := dbFor(ctx, r.db).Create(followUp).Error; err != nil {
		if strings.Contains(err.Error(), "idx_followups_company_source") {
			span.SetTag("duplicate", true)
			return errors.ErrFollowUpExists
		}
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *followUpRepository) GetByID(ctx context.Context, companyID, id string) (*models.FollowUp, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var followUp models.FollowUp
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND id = ?", companyID, id).
			First(&followUp).Error
	})
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &followUp, nil
}

func (r *followUpRepository) GetActiveBySource(ctx context.Context, companyID string, sourceType enum.FollowUpSourceType, sourceID string) (*models.FollowUp, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.GetActiveBySource")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var followUp models.FollowUp
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND source_type = ? AND source_id = ? AND status = ?",
				companyID, sourceType, sourceID, enum.FollowUpTodo).
			First(&followUp).Error
	})
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &followUp, nil
}

func (r *followUpRepository) Update(ctx context.Context, followUp *models.FollowUp) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	followUp.UpdatedAt = utils.Now()
	if err := dbFor(ctx, r.db).Save(followUp).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *followUpRepository) MarkDone(ctx context.Context, companyID, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.MarkDone")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.FollowUp{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(map[string]interface{}{"status": enum.FollowUpDone, "updated_at": utils.Now()}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *followUpRepository) Delete(ctx context.Context, companyID, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	// Hard delete: a soft-deleted row would keep holding the unique
	// source index and block a later re-creation.
	err := dbFor(ctx, r.db).Unscoped().
		Where("company_id = ? AND id = ?", companyID, id).
		Delete(&models.FollowUp{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *followUpRepository) MarkDoneBySource(ctx context.Context, companyID string, sourceType enum.FollowUpSourceType, sourceID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.MarkDoneBySource")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.FollowUp{}).
		Where("company_id = ? AND source_type = ? AND source_id = ? AND status = ?",
			companyID, sourceType, sourceID, enum.FollowUpTodo).
		Updates(map[string]interface{}{"status": enum.FollowUpDone, "updated_at": utils.Now()}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *followUpRepository) MarkDoneByClient(ctx context.Context, companyID, clientID string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.MarkDoneByClient")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	result := dbFor(ctx, r.db).Model(&models.FollowUp{}).
		Where("company_id = ? AND client_id = ? AND status = ?", companyID, clientID, enum.FollowUpTodo).
		Updates(map[string]interface{}{"status": enum.FollowUpDone, "updated_at": utils.Now()})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *followUpRepository) ListDue(ctx context.Context, companyID string, now time.Time) ([]*models.FollowUp, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpRepository.ListDue")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var followUps []*models.FollowUp
	err := dbFor(ctx, r.db).
		Where("company_id = ? AND status = ? AND is_automatic = ? AND scheduled_at <= ?",
			companyID, enum.FollowUpTodo, true, now).
		Order("scheduled_at asc").
		Find(&followUps).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return followUps, nil
}

type followUpHistoryRepository struct {
	db *gorm.DB
}

func NewFollowUpHistoryRepository(db *gorm.DB) interfaces.FollowUpHistoryRepository {
	return &followUpHistoryRepository{db: db}
}

func (r *followUpHistoryRepository) Create(ctx context.Context, entry *models.FollowUpHistory) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpHistoryRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := dbFor(ctx, r.db).Create(entry).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *followUpHistoryRepository) ListByFollowUp(ctx context.Context, companyID, followUpID string) ([]*models.FollowUpHistory, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "followUpHistoryRepository.ListByFollowUp")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var entries []*models.FollowUpHistory
	err := dbFor(ctx, r.db).
		Where("company_id = ? AND followup_id = ?", companyID, followUpID).
		Order("sent_at asc").
		Find(&entries).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return entries, nil
}
