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

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) interfaces.CompanyRepository {
	return &companyRepository{db: db}
}

const companyCodeAttempts = 5

func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "companyRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	// The 6-digit code is globally unique. Regenerate on collision, the
	// unique index is the arbiter.
	generated := company.Code == ""
	var err error
	for attempt := 0; attempt < companyCodeAttempts; attempt++ {
		if generated {
			company.Code = utils.GenerateNumericCode(6)
		}
		err = dbFor(ctx, r.db).Create(company).Error
		if err == nil {
			return nil
		}
		if !generated || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	tracing.TraceErr(span, err)
	return err
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "companyRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var company models.Company
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).Where("id = ?", id).First(&company).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) ListActive(ctx context.Context) ([]*models.Company, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "companyRepository.ListActive")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var companies []*models.Company
	if err := dbFor(ctx, r.db).Order("created_at asc").Find(&companies).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return companies, nil
}
