package imap

import (
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/crypto"
	"github.com/lokario/backoffice/internal/logger"
)

const (
	fetchBatchSize = 50
	dialTimeout    = 30
)

type IMAPService struct {
	log       logger.Logger
	encryptor *crypto.Encryptor
}

func NewIMAPService(log logger.Logger, encryptor *crypto.Encryptor) interfaces.IMAPService {
	return &IMAPService{
		log:       log,
		encryptor: encryptor,
	}
}
