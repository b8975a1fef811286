package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrCompanyMissing  = errors.New("company is missing")
	ErrTenantViolation = errors.New("row does not belong to the requesting company")

	// transport errors
	ErrNoTrashFolder       = errors.New("no trash folder available, refusing to delete")
	ErrTrashCopyUnverified = errors.New("message not found in trash after copy, refusing to expunge")
	ErrMessageNotFound     = errors.New("message not found on server")
	ErrNoIntegration       = errors.New("no active integration for this channel")
	ErrConnectionTimeout   = errors.New("connection timeout")

	// ai errors
	ErrLLMQuotaExceeded = errors.New("llm quota exceeded")
	ErrMissingPrompt    = errors.New("tenant reply prompt is not configured")

	// followup errors
	ErrFollowUpExists = errors.New("an active follow-up already exists for this source")
)
