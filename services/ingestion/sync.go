package ingestion

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

// firstSyncWindow bounds how far back the initial fetch of a new mailbox
// goes.
const firstSyncWindow = 24 * time.Hour

// reconcileWindow bounds deletion reconciliation on both sides. Messages
// older than the window are left alone.
const reconcileWindow = 14 * 24 * time.Hour

// SyncMailboxes fetches new mail for every active IMAP integration. One
// failing mailbox does not stop the others; its error lands on the
// integration row.
func (s *IngestionService) SyncMailboxes(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.SyncMailboxes")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	integrations, err := s.repos.IntegrationRepository.ListActive(ctx, enum.IntegrationIMAP)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("integrations.count", len(integrations))

	for _, integration := range integrations {
		if _, _, err := s.syncOne(ctx, integration); err != nil {
			s.log.Errorf("sync failed for integration %s: %v", integration.ID, err)
			if recordErr := s.repos.IntegrationRepository.RecordSync(ctx, integration.ID, utils.Now(), err.Error()); recordErr != nil {
				s.log.Errorf("failed to record sync error for %s: %v", integration.ID, recordErr)
			}
			continue
		}
		if err := s.repos.IntegrationRepository.RecordSync(ctx, integration.ID, utils.Now(), ""); err != nil {
			s.log.Errorf("failed to record sync for %s: %v", integration.ID, err)
		}
	}
	return nil
}

func (s *IngestionService) syncOne(ctx context.Context, integration *models.InboxIntegration) (ingested, skipped int, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.syncOne")
	defer span.Finish()
	tracing.TagCompany(span, integration.CompanyID)
	span.SetTag("integration.id", integration.ID)

	since := utils.Now().Add(-firstSyncWindow)
	if integration.LastSyncedAt != nil {
		since = *integration.LastSyncedAt
	} else if err := s.ensureDefaultFolders(ctx, integration.CompanyID); err != nil {
		s.log.Errorf("failed to seed default folders for company %s: %v", integration.CompanyID, err)
	}

	messages, err := s.imap.FetchSince(ctx, integration, since)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, 0, err
	}

	for _, message := range messages {
		stored, err := s.ProcessIncoming(ctx, integration.CompanyID, message)
		if err != nil {
			// Keep going; the message stays on the server and the next
			// sync retries it.
			s.log.Errorf("failed to ingest message %q for company %s: %v",
				message.MessageID, integration.CompanyID, err)
			continue
		}
		if stored != nil {
			ingested++
		} else {
			// Duplicate or filtered out.
			skipped++
		}
	}

	span.SetTag("messages.ingested", ingested)
	span.SetTag("messages.skipped", skipped)
	if ingested > 0 || skipped > 0 {
		s.log.Infof("sync for company %s: %d ingested, %d skipped", integration.CompanyID, ingested, skipped)
	}
	return ingested, skipped, nil
}

// ReconcileDeletions removes local copies of inbound emails the user deleted
// from another mail client. Only messages from the reconcile window are
// compared, and a message is deleted only after two consecutive passes miss
// it on the server.
func (s *IngestionService) ReconcileDeletions(ctx context.Context, integration *models.InboxIntegration) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.ReconcileDeletions")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, integration.CompanyID)

	since := utils.Now().Add(-reconcileWindow)

	remoteIDs, err := s.imap.ListMessageIDs(ctx, integration, since)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	remote := make(map[string]bool, len(remoteIDs))
	for _, id := range remoteIDs {
		remote[id] = true
	}

	local, err := s.repos.MessageRepository.ListReconcilable(ctx, integration.CompanyID, since)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	removed, missing := 0, 0
	for _, message := range local {
		if remote[message.ExternalID] {
			if message.MissingSince != nil {
				if err := s.repos.MessageRepository.ClearMissing(ctx, integration.CompanyID, message.ExternalID); err != nil {
					tracing.TraceErr(span, err)
					return err
				}
			}
			continue
		}
		// A single miss can be a transient enumeration failure; only mark
		// the message and let the next pass confirm.
		if message.MissingSince == nil {
			if err := s.repos.MessageRepository.MarkMissing(ctx, integration.CompanyID, message.ExternalID, utils.Now()); err != nil {
				tracing.TraceErr(span, err)
				return err
			}
			missing++
			continue
		}
		if err := s.repos.MessageRepository.DeleteByExternalID(ctx, integration.CompanyID, message.ExternalID); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		removed++
	}
	if removed > 0 {
		s.log.Infof("reconciled %d deleted messages for company %s", removed, integration.CompanyID)
	}
	span.SetTag("messages.removed", removed)
	span.SetTag("messages.missing", missing)
	return nil
}
