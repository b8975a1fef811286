package cron

import (
	"context"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

func (cm *CronManager) syncMailboxes(ctx context.Context) {
	if err := cm.ingestion.SyncMailboxes(ctx); err != nil {
		cm.log.Errorf("Mailbox sync failed: %v", err)
	}
	// Catch conversations the per-message fast path left unfiled.
	if err := cm.classifier.ClassifyAll(ctx); err != nil {
		cm.log.Errorf("Post-sync classification failed: %v", err)
	}
}

// reconcileDeletions runs per integration so one unreachable mailbox does
// not block the rest.
func (cm *CronManager) reconcileDeletions(ctx context.Context) {
	integrations, err := cm.repos.IntegrationRepository.ListActive(ctx, enum.IntegrationIMAP)
	if err != nil {
		cm.log.Errorf("Listing IMAP integrations failed: %v", err)
		return
	}
	for _, integration := range integrations {
		if err := cm.ingestion.ReconcileDeletions(ctx, integration); err != nil {
			cm.log.Errorf("Deletion reconciliation failed for %s: %v", integration.ID, err)
		}
	}
}

func (cm *CronManager) runFollowUps(ctx context.Context) {
	if err := cm.followUps.RunAll(ctx); err != nil {
		cm.log.Errorf("Follow-up run failed: %v", err)
	}
}

func (cm *CronManager) releasePendingReplies(ctx context.Context) {
	if err := cm.autoReply.ReleasePending(ctx, utils.Now()); err != nil {
		cm.log.Errorf("Pending auto-reply release failed: %v", err)
	}
}

func (cm *CronManager) classifyConversations(ctx context.Context) {
	if err := cm.classifier.ClassifyAll(ctx); err != nil {
		cm.log.Errorf("Conversation classification sweep failed: %v", err)
	}
}
