package autoreply

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/utils"
)

type pendingCall struct {
	conversationID string
	mode           enum.AutoReplyMode
	content        string
}

type recordingConversationRepo struct {
	byID    map[string]*models.Conversation
	pending []*models.Conversation
	set     []pendingCall
	cleared []string
}

func (f *recordingConversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	return nil
}

func (f *recordingConversationRepo) GetByID(ctx context.Context, companyID, id string) (*models.Conversation, error) {
	return f.byID[id], nil
}

func (f *recordingConversationRepo) Update(ctx context.Context, conversation *models.Conversation) error {
	return nil
}

func (f *recordingConversationRepo) UpdateStatus(ctx context.Context, companyID, id string, status enum.ConversationStatus) error {
	return nil
}

func (f *recordingConversationRepo) SetFolder(ctx context.Context, companyID, id string, folderID *string, manual bool) error {
	return nil
}

func (f *recordingConversationRepo) SetPendingAutoReply(ctx context.Context, companyID, id string, mode enum.AutoReplyMode, content string) error {
	f.set = append(f.set, pendingCall{conversationID: id, mode: mode, content: content})
	return nil
}

func (f *recordingConversationRepo) ClearPendingAutoReply(ctx context.Context, companyID, id string) error {
	f.cleared = append(f.cleared, id)
	return nil
}

func (f *recordingConversationRepo) FindForThreading(ctx context.Context, companyID, clientID, normalizedSubject string) (*models.Conversation, error) {
	return nil, nil
}

func (f *recordingConversationRepo) ListUnclassified(ctx context.Context, companyID string, limit int) ([]*models.Conversation, error) {
	return nil, nil
}

func (f *recordingConversationRepo) ListPendingAutoReplies(ctx context.Context, lastMessageBefore time.Time) ([]*models.Conversation, error) {
	return f.pending, nil
}

type fakeSettingsRepo struct{}

func (fakeSettingsRepo) Get(ctx context.Context, companyID string) (*models.CompanySettings, error) {
	return &models.CompanySettings{CompanyID: companyID}, nil
}

func (fakeSettingsRepo) Save(ctx context.Context, settings *models.CompanySettings) error {
	return nil
}

type fakeAI struct {
	reply string
}

func (f *fakeAI) ClassifyConversations(ctx context.Context, request dto.ClassificationRequest) ([]dto.ClassificationResult, error) {
	return nil, nil
}

func (f *fakeAI) DraftReply(ctx context.Context, request dto.ReplyDraftRequest) (string, error) {
	return f.reply, nil
}

type arIntegrationRepo struct {
	primary *models.InboxIntegration
}

func (f *arIntegrationRepo) Create(ctx context.Context, integration *models.InboxIntegration) error {
	return nil
}

func (f *arIntegrationRepo) GetByID(ctx context.Context, companyID, id string) (*models.InboxIntegration, error) {
	return nil, nil
}

func (f *arIntegrationRepo) GetPrimary(ctx context.Context, companyID string, t enum.IntegrationType) (*models.InboxIntegration, error) {
	return f.primary, nil
}

func (f *arIntegrationRepo) ListActive(ctx context.Context, t enum.IntegrationType) ([]*models.InboxIntegration, error) {
	return nil, nil
}

func (f *arIntegrationRepo) RecordSync(ctx context.Context, id string, syncedAt time.Time, errMessage string) error {
	return nil
}

type fakeNotifier struct {
	sent []*models.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, notification *models.Notification) error {
	f.sent = append(f.sent, notification)
	return nil
}

func evalService(folders map[string]*models.InboxFolder, messages *fakeMessageRepo, conversations *recordingConversationRepo) *AutoReplyService {
	log := logger.NewAppLogger(&logger.Config{LogLevel: "error", DevMode: true})
	log.InitLogger()

	return &AutoReplyService{
		log: log,
		repos: &repository.Repositories{
			FolderRepository:       &fakeFolderRepo{folders: folders},
			MessageRepository:      messages,
			ConversationRepository: conversations,
			SettingsRepository:     fakeSettingsRepo{},
			IntegrationRepository:  &arIntegrationRepo{},
		},
		ai:            &fakeAI{reply: "Bonjour, merci pour votre message."},
		notifications: &fakeNotifier{},
	}
}

func timeAt(t time.Time) *time.Time {
	return &t
}

func TestEvaluateKeepsDraftPendingWhenSendFails(t *testing.T) {
	conversation := &models.Conversation{
		ID:        "conv_1",
		CompanyID: "comp_1",
		FolderID:  utils.StringPtr("fold_1"),
		Subject:   "Devis toiture",
		Source:    enum.MessageSourceEmail,
	}
	conversations := &recordingConversationRepo{
		byID: map[string]*models.Conversation{"conv_1": conversation},
	}
	messages := &fakeMessageRepo{messages: []*models.InboxMessage{
		{IsFromClient: true, SenderEmail: "jean@client.fr", SentAt: time.Now().Add(-time.Minute)},
	}}
	// No integration is configured, so the immediate send fails.
	s := evalService(map[string]*models.InboxFolder{
		"fold_1": {ID: "fold_1", AutoReply: models.FolderAutoReply{Enabled: true, Mode: enum.AutoReplyModeAuto}},
	}, messages, conversations)

	err := s.EvaluateConversation(context.Background(), "comp_1", "conv_1")
	require.NoError(t, err)

	require.Len(t, conversations.set, 1)
	assert.Equal(t, "conv_1", conversations.set[0].conversationID)
	assert.Equal(t, enum.AutoReplyModeAuto, conversations.set[0].mode)
	assert.Equal(t, "Bonjour, merci pour votre message.", conversations.set[0].content)
}

func TestReleasePendingWaitsForLastClientMessage(t *testing.T) {
	now := time.Now()
	fresh := &models.Conversation{
		ID:                      "conv_fresh",
		CompanyID:               "comp_1",
		FolderID:                utils.StringPtr("fold_1"),
		AutoReplyPending:        true,
		PendingAutoReplyContent: "Bonjour",
		LastMessageAt:           timeAt(now.Add(-2 * time.Minute)),
	}
	due := &models.Conversation{
		ID:                      "conv_due",
		CompanyID:               "comp_1",
		FolderID:                utils.StringPtr("fold_1"),
		AutoReplyPending:        true,
		PendingAutoReplyContent: "Bonjour",
		LastMessageAt:           timeAt(now.Add(-15 * time.Minute)),
	}
	conversations := &recordingConversationRepo{
		byID:    map[string]*models.Conversation{"conv_fresh": fresh, "conv_due": due},
		pending: []*models.Conversation{fresh, due},
	}
	// The latest message is ours, so the due conversation fails the
	// eligibility re-check and gets cleared instead of sent.
	messages := &fakeMessageRepo{messages: []*models.InboxMessage{
		{IsFromClient: false, SentAt: now.Add(-20 * time.Minute)},
	}}
	s := evalService(map[string]*models.InboxFolder{
		"fold_1": {ID: "fold_1", AutoReply: models.FolderAutoReply{Enabled: true, Mode: enum.AutoReplyModeAuto, DelayMinutes: 10}},
	}, messages, conversations)

	err := s.ReleasePending(context.Background(), now)
	require.NoError(t, err)

	// The fresh conversation's delay counts from its last client message
	// and has not elapsed, so only the due one was touched.
	assert.Equal(t, []string{"conv_due"}, conversations.cleared)
}
