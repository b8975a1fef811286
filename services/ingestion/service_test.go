package ingestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
)

// In-memory fakes for the write path. Maps are keyed the way the real
// repositories index.

type fakeTxManager struct {
	locks []string
}

func (f *fakeTxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTxManager) AdvisoryLock(ctx context.Context, key string) error {
	f.locks = append(f.locks, key)
	return nil
}

type fakeClientRepo struct {
	byEmail map[string]*models.Client
	byPhone map[string]*models.Client
	created []*models.Client
}

func (f *fakeClientRepo) Create(ctx context.Context, client *models.Client) error {
	client.ID = fmt.Sprintf("clnt_%d", len(f.created)+1)
	f.created = append(f.created, client)
	if client.Email != "" {
		f.byEmail[client.Email] = client
	}
	if client.Phone != "" {
		f.byPhone[client.Phone] = client
	}
	return nil
}

func (f *fakeClientRepo) GetByID(ctx context.Context, companyID, id string) (*models.Client, error) {
	return nil, nil
}

func (f *fakeClientRepo) GetByEmail(ctx context.Context, companyID, email string) (*models.Client, error) {
	return f.byEmail[email], nil
}

func (f *fakeClientRepo) GetByPhone(ctx context.Context, companyID, phone string) (*models.Client, error) {
	return f.byPhone[phone], nil
}

type fakeConversationRepo struct {
	byID        map[string]*models.Conversation
	byThreadKey map[string]*models.Conversation
}

func threadKey(clientID, normalizedSubject string) string {
	return clientID + "|" + normalizedSubject
}

func (f *fakeConversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	conversation.ID = fmt.Sprintf("conv_%d", len(f.byID)+1)
	f.byID[conversation.ID] = conversation
	if conversation.ClientID != nil {
		f.byThreadKey[threadKey(*conversation.ClientID, conversation.NormalizedSubject)] = conversation
	}
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, companyID, id string) (*models.Conversation, error) {
	return f.byID[id], nil
}

func (f *fakeConversationRepo) Update(ctx context.Context, conversation *models.Conversation) error {
	f.byID[conversation.ID] = conversation
	return nil
}

func (f *fakeConversationRepo) UpdateStatus(ctx context.Context, companyID, id string, status enum.ConversationStatus) error {
	return nil
}

func (f *fakeConversationRepo) SetFolder(ctx context.Context, companyID, id string, folderID *string, manual bool) error {
	return nil
}

func (f *fakeConversationRepo) SetPendingAutoReply(ctx context.Context, companyID, id string, mode enum.AutoReplyMode, content string) error {
	return nil
}

func (f *fakeConversationRepo) ClearPendingAutoReply(ctx context.Context, companyID, id string) error {
	return nil
}

func (f *fakeConversationRepo) FindForThreading(ctx context.Context, companyID, clientID, normalizedSubject string) (*models.Conversation, error) {
	return f.byThreadKey[threadKey(clientID, normalizedSubject)], nil
}

func (f *fakeConversationRepo) ListUnclassified(ctx context.Context, companyID string, limit int) ([]*models.Conversation, error) {
	return nil, nil
}

func (f *fakeConversationRepo) ListPendingAutoReplies(ctx context.Context, lastMessageBefore time.Time) ([]*models.Conversation, error) {
	return nil, nil
}

type fakeIngestMessageRepo struct {
	byExternalID map[string]*models.InboxMessage
	created      []*models.InboxMessage
}

func (f *fakeIngestMessageRepo) Create(ctx context.Context, message *models.InboxMessage) (bool, error) {
	if _, ok := f.byExternalID[message.ExternalID]; ok {
		return false, nil
	}
	message.ID = fmt.Sprintf("imsg_%d", len(f.created)+1)
	f.byExternalID[message.ExternalID] = message
	f.created = append(f.created, message)
	return true, nil
}

func (f *fakeIngestMessageRepo) GetByID(ctx context.Context, companyID, id string) (*models.InboxMessage, error) {
	return nil, nil
}

func (f *fakeIngestMessageRepo) ExistsByExternalID(ctx context.Context, companyID, externalID string) (bool, error) {
	_, ok := f.byExternalID[externalID]
	return ok, nil
}

func (f *fakeIngestMessageRepo) ExistsByFingerprint(ctx context.Context, companyID, fingerprint string) (bool, error) {
	for _, m := range f.created {
		if m.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIngestMessageRepo) FindByAnyExternalID(ctx context.Context, companyID string, externalIDs []string) (*models.InboxMessage, error) {
	for _, id := range externalIDs {
		if m, ok := f.byExternalID[id]; ok {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeIngestMessageRepo) ListByConversation(ctx context.Context, companyID, conversationID string, limit int) ([]*models.InboxMessage, error) {
	return nil, nil
}

func (f *fakeIngestMessageRepo) CountOutboundSince(ctx context.Context, companyID, conversationID string, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeIngestMessageRepo) ListReconcilable(ctx context.Context, companyID string, since time.Time) ([]*models.InboxMessage, error) {
	var result []*models.InboxMessage
	for _, m := range f.created {
		if m.IsFromClient && m.Source == enum.MessageSourceEmail && m.ExternalID != "" && !m.SentAt.Before(since) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeIngestMessageRepo) MarkMissing(ctx context.Context, companyID, externalID string, at time.Time) error {
	if m, ok := f.byExternalID[externalID]; ok {
		m.MissingSince = &at
	}
	return nil
}

func (f *fakeIngestMessageRepo) ClearMissing(ctx context.Context, companyID, externalID string) error {
	if m, ok := f.byExternalID[externalID]; ok {
		m.MissingSince = nil
	}
	return nil
}

func (f *fakeIngestMessageRepo) DeleteByExternalID(ctx context.Context, companyID, externalID string) error {
	m, ok := f.byExternalID[externalID]
	if !ok {
		return nil
	}
	delete(f.byExternalID, externalID)
	for i, c := range f.created {
		if c == m {
			f.created = append(f.created[:i], f.created[i+1:]...)
			break
		}
	}
	return nil
}

type fakeAttachmentRepo struct {
	created []*models.MessageAttachment
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, attachment *models.MessageAttachment) error {
	f.created = append(f.created, attachment)
	return nil
}

func (f *fakeAttachmentRepo) ListByMessage(ctx context.Context, companyID, messageID string) ([]*models.MessageAttachment, error) {
	return nil, nil
}

type fakeIntegrationRepo struct {
	primary *models.InboxIntegration
}

func (f *fakeIntegrationRepo) Create(ctx context.Context, integration *models.InboxIntegration) error {
	return nil
}

func (f *fakeIntegrationRepo) GetByID(ctx context.Context, companyID, id string) (*models.InboxIntegration, error) {
	return nil, nil
}

func (f *fakeIntegrationRepo) GetPrimary(ctx context.Context, companyID string, t enum.IntegrationType) (*models.InboxIntegration, error) {
	return f.primary, nil
}

func (f *fakeIntegrationRepo) ListActive(ctx context.Context, t enum.IntegrationType) ([]*models.InboxIntegration, error) {
	return nil, nil
}

func (f *fakeIntegrationRepo) RecordSync(ctx context.Context, id string, syncedAt time.Time, errMessage string) error {
	return nil
}

type fakeIngestFolderRepo struct {
	folders []*models.InboxFolder
}

func (f *fakeIngestFolderRepo) Create(ctx context.Context, folder *models.InboxFolder) error {
	folder.ID = fmt.Sprintf("fold_%d", len(f.folders)+1)
	f.folders = append(f.folders, folder)
	return nil
}

func (f *fakeIngestFolderRepo) GetByID(ctx context.Context, companyID, id string) (*models.InboxFolder, error) {
	for _, folder := range f.folders {
		if folder.ID == id {
			return folder, nil
		}
	}
	return nil, nil
}

func (f *fakeIngestFolderRepo) ListByCompany(ctx context.Context, companyID string) ([]*models.InboxFolder, error) {
	return f.folders, nil
}

func (f *fakeIngestFolderRepo) Update(ctx context.Context, folder *models.InboxFolder) error {
	return nil
}

type fakeStorage struct{}

func (fakeStorage) Save(ctx context.Context, companyID, subdir, filename string, data []byte) (string, int64, error) {
	return companyID + "/" + subdir + "/" + filename, int64(len(data)), nil
}
func (fakeStorage) Load(ctx context.Context, path string) ([]byte, error) { return nil, nil }
func (fakeStorage) Delete(ctx context.Context, path string) error         { return nil }

type fakeIMAP struct {
	fetch  []dto.IncomingMessage
	remote []string
	since  []time.Time
}

func (f *fakeIMAP) FetchSince(ctx context.Context, integration *models.InboxIntegration, since time.Time) ([]dto.IncomingMessage, error) {
	return f.fetch, nil
}

func (f *fakeIMAP) ListMessageIDs(ctx context.Context, integration *models.InboxIntegration, since time.Time) ([]string, error) {
	f.since = append(f.since, since)
	return f.remote, nil
}

func (f *fakeIMAP) MoveToTrash(ctx context.Context, integration *models.InboxIntegration, messageID string) error {
	return nil
}

type recordingDispatcher struct {
	events []interfaces.MessageIngested
}

func (d *recordingDispatcher) Subscribe(reducer interfaces.IngestReducer) {}
func (d *recordingDispatcher) Dispatch(ctx context.Context, event interfaces.MessageIngested) {
	d.events = append(d.events, event)
}

type ingestFixture struct {
	service       *IngestionService
	tx            *fakeTxManager
	clients       *fakeClientRepo
	conversations *fakeConversationRepo
	messages      *fakeIngestMessageRepo
	attachments   *fakeAttachmentRepo
	folders       *fakeIngestFolderRepo
	dispatcher    *recordingDispatcher
	imap          *fakeIMAP
}

func newIngestFixture() *ingestFixture {
	log := logger.NewAppLogger(&logger.Config{LogLevel: "error", DevMode: true})
	log.InitLogger()

	f := &ingestFixture{
		tx: &fakeTxManager{},
		clients: &fakeClientRepo{
			byEmail: make(map[string]*models.Client),
			byPhone: make(map[string]*models.Client),
		},
		conversations: &fakeConversationRepo{
			byID:        make(map[string]*models.Conversation),
			byThreadKey: make(map[string]*models.Conversation),
		},
		messages:    &fakeIngestMessageRepo{byExternalID: make(map[string]*models.InboxMessage)},
		attachments: &fakeAttachmentRepo{},
		folders:     &fakeIngestFolderRepo{},
		dispatcher:  &recordingDispatcher{},
		imap:        &fakeIMAP{},
	}
	f.service = &IngestionService{
		log: log,
		repos: &repository.Repositories{
			TxManager:              f.tx,
			ClientRepository:       f.clients,
			ConversationRepository: f.conversations,
			MessageRepository:      f.messages,
			AttachmentRepository:   f.attachments,
			FolderRepository:       f.folders,
			IntegrationRepository:  &fakeIntegrationRepo{primary: &models.InboxIntegration{EmailAddress: "contact@atelier.fr"}},
		},
		imap:       f.imap,
		storage:    fakeStorage{},
		dispatcher: f.dispatcher,
	}
	return f
}

func inboundEmail(messageID, subject string) dto.IncomingMessage {
	return dto.IncomingMessage{
		MessageID: messageID,
		Subject:   subject,
		FromName:  "Jean Dupont",
		FromEmail: "jean@client.fr",
		Date:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		BodyText:  "Bonjour, pouvez-vous me faire un devis ?",
		Source:    enum.MessageSourceEmail,
	}
}

func TestProcessIncomingCreatesClientConversationAndMessage(t *testing.T) {
	f := newIngestFixture()

	stored, err := f.service.ProcessIncoming(context.Background(), "comp_1", inboundEmail("<m1@client.fr>", "Devis toiture"))
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, f.clients.created, 1)
	assert.Equal(t, "Jean Dupont", f.clients.created[0].Name)

	require.Len(t, f.conversations.byID, 1)
	conversation := f.conversations.byID[stored.ConversationID]
	require.NotNil(t, conversation)
	assert.Equal(t, enum.ConversationToAnswer, conversation.Status)
	assert.Equal(t, 1, conversation.UnreadCount)
	assert.Equal(t, "Devis toiture", conversation.NormalizedSubject)

	assert.Equal(t, "m1@client.fr", stored.ExternalID)
	assert.True(t, stored.IsFromClient)

	require.Len(t, f.dispatcher.events, 1)
	assert.Equal(t, stored.ID, f.dispatcher.events[0].MessageID)

	require.Len(t, f.tx.locks, 1)
	assert.Contains(t, f.tx.locks[0], "comp_1:")
	assert.Contains(t, f.tx.locks[0], ":Devis toiture")
}

func TestProcessIncomingDeduplicatesByMessageID(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	first, err := f.service.ProcessIncoming(ctx, "comp_1", inboundEmail("<m1@client.fr>", "Devis toiture"))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.service.ProcessIncoming(ctx, "comp_1", inboundEmail("<M1@client.fr>", "Devis toiture"))
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Len(t, f.messages.created, 1)
	assert.Len(t, f.dispatcher.events, 1)
}

func TestProcessIncomingThreadsReplyByHeader(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	first, err := f.service.ProcessIncoming(ctx, "comp_1", inboundEmail("<m1@client.fr>", "Devis toiture"))
	require.NoError(t, err)

	reply := inboundEmail("<m2@client.fr>", "Autre sujet complètement")
	reply.InReplyTo = "<m1@client.fr>"
	second, err := f.service.ProcessIncoming(ctx, "comp_1", reply)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Len(t, f.conversations.byID, 1)
}

func TestProcessIncomingThreadsBySubjectFallback(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	first, err := f.service.ProcessIncoming(ctx, "comp_1", inboundEmail("<m1@client.fr>", "Devis toiture"))
	require.NoError(t, err)

	followUp := inboundEmail("<m2@client.fr>", "Re: Devis toiture")
	second, err := f.service.ProcessIncoming(ctx, "comp_1", followUp)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	conversation := f.conversations.byID[first.ConversationID]
	assert.Equal(t, 2, conversation.UnreadCount)
}

func TestProcessIncomingNewSubjectOpensNewConversation(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	first, err := f.service.ProcessIncoming(ctx, "comp_1", inboundEmail("<m1@client.fr>", "Devis toiture"))
	require.NoError(t, err)

	other, err := f.service.ProcessIncoming(ctx, "comp_1", inboundEmail("<m2@client.fr>", "Facture de mars"))
	require.NoError(t, err)
	require.NotNil(t, other)

	assert.NotEqual(t, first.ConversationID, other.ConversationID)
	assert.Len(t, f.conversations.byID, 2)
	// Same sender, one client record.
	assert.Len(t, f.clients.created, 1)
}

func TestProcessIncomingFiltersBulkMail(t *testing.T) {
	f := newIngestFixture()

	msg := inboundEmail("<m1@news.fr>", "Promo du mois")
	msg.FromEmail = "newsletter@news.fr"
	stored, err := f.service.ProcessIncoming(context.Background(), "comp_1", msg)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Empty(t, f.messages.created)
	assert.Empty(t, f.dispatcher.events)
}

func TestProcessIncomingFilesSuspectedBulkIntoSpamFolder(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	msg := inboundEmail("<m1@client.fr>", "Offre du mois")
	msg.BodyText = "Offre du mois. Pour vous désabonner, cliquez ici."
	stored, err := f.service.ProcessIncoming(ctx, "comp_1", msg)
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, f.folders.folders, 1)
	spam := f.folders.folders[0]
	assert.Equal(t, "Spam", spam.Name)

	conversation := f.conversations.byID[stored.ConversationID]
	require.NotNil(t, conversation)
	require.NotNil(t, conversation.FolderID)
	assert.Equal(t, spam.ID, *conversation.FolderID)

	// No reducers run on suspected spam, so no auto-reply can fire.
	assert.Empty(t, f.dispatcher.events)

	// The folder is reused on the next hit.
	second := inboundEmail("<m2@client.fr>", "Encore une offre")
	second.BodyText = "Pour vous désabonner, répondez STOP."
	_, err = f.service.ProcessIncoming(ctx, "comp_1", second)
	require.NoError(t, err)
	assert.Len(t, f.folders.folders, 1)
}

func TestProcessIncomingFingerprintDedupWithoutMessageID(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	sms := dto.IncomingMessage{
		FromPhone: "+33612345678",
		BodyText:  "Bonjour, rappel demain 9h",
		Date:      time.Date(2024, 6, 1, 10, 0, 10, 0, time.UTC),
		Source:    enum.MessageSourceSMS,
	}

	first, err := f.service.ProcessIncoming(ctx, "comp_1", sms)
	require.NoError(t, err)
	require.NotNil(t, first)
	// A synthetic id was assigned.
	assert.NotEmpty(t, first.ExternalID)

	retransmit := sms
	retransmit.Date = sms.Date.Add(20 * time.Second)
	second, err := f.service.ProcessIncoming(ctx, "comp_1", retransmit)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, f.messages.created, 1)
}

func TestProcessIncomingConvertsHTMLBody(t *testing.T) {
	f := newIngestFixture()

	msg := inboundEmail("<m1@client.fr>", "Devis toiture")
	msg.BodyText = ""
	msg.BodyHTML = "<p>Bonjour,</p><p>pouvez-vous me faire un devis ?</p>"
	stored, err := f.service.ProcessIncoming(context.Background(), "comp_1", msg)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Contains(t, stored.Body, "Bonjour")
	assert.NotContains(t, stored.Body, "<p>")
}

func TestProcessIncomingStoresAttachments(t *testing.T) {
	f := newIngestFixture()

	msg := inboundEmail("<m1@client.fr>", "Devis toiture")
	msg.Attachments = []dto.IncomingAttachment{
		{Filename: "plan.pdf", ContentType: "application/pdf", Content: []byte("%PDF-")},
	}
	stored, err := f.service.ProcessIncoming(context.Background(), "comp_1", msg)
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, f.attachments.created, 1)
	att := f.attachments.created[0]
	assert.Equal(t, stored.ID, att.MessageID)
	assert.Equal(t, "plan.pdf", att.Filename)
	assert.Equal(t, int64(5), att.SizeBytes)
}

func TestProcessIncomingRejectsInvalidSource(t *testing.T) {
	f := newIngestFixture()

	_, err := f.service.ProcessIncoming(context.Background(), "comp_1", dto.IncomingMessage{Source: "pigeon"})
	assert.Error(t, err)
}
