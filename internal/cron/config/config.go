package cron_config

type Config struct {
	// Mailbox sync, every 5 minutes
	CronScheduleSyncMailboxes string `env:"CRON_SCHEDULE_SYNC_MAILBOXES" envDefault:"0 */5 * * * *"`
	// Remote deletion reconciliation, hourly
	CronScheduleReconcileDeletions string `env:"CRON_SCHEDULE_RECONCILE_DELETIONS" envDefault:"0 15 * * * *"`
	// Follow-up creation and dispatch, every 10 minutes
	CronScheduleFollowUps string `env:"CRON_SCHEDULE_FOLLOWUPS" envDefault:"0 */10 * * * *"`
	// Delayed auto-reply release, every minute
	CronScheduleReleasePendingReplies string `env:"CRON_SCHEDULE_RELEASE_PENDING_REPLIES" envDefault:"0 * * * * *"`
	// AI classification sweep for conversations the fast path skipped, every 15 minutes
	CronScheduleClassifyConversations string `env:"CRON_SCHEDULE_CLASSIFY_CONVERSATIONS" envDefault:"0 */15 * * * *"`
}
