package interfaces

import (
	"context"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/models"
)

type SMTPService interface {
	Send(ctx context.Context, integration *models.InboxIntegration, email dto.OutgoingEmail) error
}

type SMSService interface {
	Send(ctx context.Context, integration *models.InboxIntegration, sms dto.OutgoingSMS) error
}
