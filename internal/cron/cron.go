package cron

import (
	"context"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/lokario/backoffice/interfaces"
	cron_config "github.com/lokario/backoffice/internal/cron/config"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
)

const (
	// GroupInbox serializes jobs touching the conversation store
	GroupInbox = "inbox"
	// GroupFollowUps serializes follow-up creation and dispatch
	GroupFollowUps = "followups"
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupInbox:     new(sync.Mutex),
		GroupFollowUps: new(sync.Mutex),
	},
}

type CronManager struct {
	log    logger.Logger
	cron   *cronv3.Cron
	repos  *repository.Repositories
	jobIDs map[string]cronv3.EntryID

	ingestion  interfaces.IngestionService
	classifier interfaces.ClassifierService
	autoReply  interfaces.AutoReplyService
	followUps  interfaces.FollowUpService
}

func NewCronManager(
	log logger.Logger,
	repos *repository.Repositories,
	ingestion interfaces.IngestionService,
	classifier interfaces.ClassifierService,
	autoReply interfaces.AutoReplyService,
	followUps interfaces.FollowUpService,
) *CronManager {
	return &CronManager{
		log:        log,
		repos:      repos,
		jobIDs:     make(map[string]cronv3.EntryID),
		ingestion:  ingestion,
		classifier: classifier,
		autoReply:  autoReply,
		followUps:  followUps,
	}
}

// Start initializes and starts the cron scheduler.
func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager and waits for running jobs.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	cm.addJob(c, "sync_mailboxes", cronConfig.CronScheduleSyncMailboxes, GroupInbox, cm.syncMailboxes)
	cm.addJob(c, "reconcile_deletions", cronConfig.CronScheduleReconcileDeletions, GroupInbox, cm.reconcileDeletions)
	cm.addJob(c, "followups", cronConfig.CronScheduleFollowUps, GroupFollowUps, cm.runFollowUps)
	cm.addJob(c, "release_pending_replies", cronConfig.CronScheduleReleasePendingReplies, GroupInbox, cm.releasePendingReplies)
	cm.addJob(c, "classify_conversations", cronConfig.CronScheduleClassifyConversations, GroupInbox, cm.classifyConversations)
}

func (cm *CronManager) addJob(c *cronv3.Cron, name, schedule, group string, job func(ctx context.Context)) {
	if schedule == "" {
		cm.log.Infof("Job %s disabled, no schedule configured", name)
		return
	}
	id, err := c.AddFunc(schedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		jobLocks.locks[group].Lock()
		defer jobLocks.locks[group].Unlock()

		span, ctx := tracing.StartTracerSpan(context.Background(), "cron."+name)
		defer span.Finish()
		tracing.TagComponentCronJob(span)

		job(ctx)
	})
	if err != nil {
		cm.log.Fatalf("Could not add %s cron job: %v", name, err)
	}
	cm.jobIDs[name] = id
	cm.log.Infof("Registered %s job with schedule: %s", name, schedule)
}
