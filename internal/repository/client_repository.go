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

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) interfaces.ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clientRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, client.CompanyID)

	if err := dbFor(ctx, r.db).Create(client).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, companyID, id string) (*models.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clientRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	return r.getOne(ctx, span, "company_id = ? AND id = ?", companyID, id)
}

func (r *clientRepository) GetByEmail(ctx context.Context, companyID, email string) (*models.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clientRepository.GetByEmail")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	return r.getOne(ctx, span, "company_id = ? AND lower(email) = lower(?)", companyID, email)
}

func (r *clientRepository) GetByPhone(ctx context.Context, companyID, phone string) (*models.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clientRepository.GetByPhone")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	return r.getOne(ctx, span, "company_id = ? AND phone = ?", companyID, phone)
}

func (r *clientRepository) getOne(ctx context.Context, span opentracing.Span, query string, args ...interface{}) (*models.Client, error) {
	var client models.Client
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).Where(query, args...).First(&client).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &client, nil
}
