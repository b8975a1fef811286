package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

type folderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) interfaces.FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(ctx context.Context, folder *models.InboxFolder) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, folder.CompanyID)

	if err := dbFor(ctx, r.db).Create(folder).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *folderRepository) GetByID(ctx context.Context, companyID, id string) (*models.InboxFolder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var folder models.InboxFolder
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND id = ?", companyID, id).
			First(&folder).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &folder, nil
}

func (r *folderRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.InboxFolder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.ListByCompany")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var folders []*models.InboxFolder
	err := dbFor(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("created_at asc").
		Find(&folders).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return folders, nil
}

func (r *folderRepository) Update(ctx context.Context, folder *models.InboxFolder) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	folder.UpdatedAt = utils.Now()
	if err := dbFor(ctx, r.db).Save(folder).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
