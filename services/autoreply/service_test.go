package autoreply

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/utils"
)

type fakeFolderRepo struct {
	folders map[string]*models.InboxFolder
}

func (f *fakeFolderRepo) Create(ctx context.Context, folder *models.InboxFolder) error { return nil }
func (f *fakeFolderRepo) GetByID(ctx context.Context, companyID, id string) (*models.InboxFolder, error) {
	return f.folders[id], nil
}
func (f *fakeFolderRepo) ListByCompany(ctx context.Context, companyID string) ([]*models.InboxFolder, error) {
	return nil, nil
}
func (f *fakeFolderRepo) Update(ctx context.Context, folder *models.InboxFolder) error { return nil }

type fakeMessageRepo struct {
	messages      []*models.InboxMessage
	outboundSince func(since time.Time) int64
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *models.InboxMessage) (bool, error) {
	return true, nil
}
func (f *fakeMessageRepo) GetByID(ctx context.Context, companyID, id string) (*models.InboxMessage, error) {
	return nil, nil
}
func (f *fakeMessageRepo) ExistsByExternalID(ctx context.Context, companyID, externalID string) (bool, error) {
	return false, nil
}
func (f *fakeMessageRepo) ExistsByFingerprint(ctx context.Context, companyID, fingerprint string) (bool, error) {
	return false, nil
}
func (f *fakeMessageRepo) FindByAnyExternalID(ctx context.Context, companyID string, externalIDs []string) (*models.InboxMessage, error) {
	return nil, nil
}
func (f *fakeMessageRepo) ListByConversation(ctx context.Context, companyID, conversationID string, limit int) ([]*models.InboxMessage, error) {
	if limit > 0 && len(f.messages) > limit {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}
func (f *fakeMessageRepo) CountOutboundSince(ctx context.Context, companyID, conversationID string, since time.Time) (int64, error) {
	if f.outboundSince != nil {
		return f.outboundSince(since), nil
	}
	var count int64
	for _, m := range f.messages {
		if !m.IsFromClient && m.SentAt.After(since) {
			count++
		}
	}
	return count, nil
}
func (f *fakeMessageRepo) ListReconcilable(ctx context.Context, companyID string, since time.Time) ([]*models.InboxMessage, error) {
	return nil, nil
}
func (f *fakeMessageRepo) MarkMissing(ctx context.Context, companyID, externalID string, at time.Time) error {
	return nil
}
func (f *fakeMessageRepo) ClearMissing(ctx context.Context, companyID, externalID string) error {
	return nil
}
func (f *fakeMessageRepo) DeleteByExternalID(ctx context.Context, companyID, externalID string) error {
	return nil
}

func serviceWith(folders map[string]*models.InboxFolder, messages *fakeMessageRepo) *AutoReplyService {
	return &AutoReplyService{
		repos: &repository.Repositories{
			FolderRepository:  &fakeFolderRepo{folders: folders},
			MessageRepository: messages,
		},
	}
}

func conversationInFolder(folderID string) *models.Conversation {
	return &models.Conversation{
		ID:        "conv_1",
		CompanyID: "comp_1",
		FolderID:  utils.StringPtr(folderID),
	}
}

func TestFolderPolicyDisabled(t *testing.T) {
	s := serviceWith(map[string]*models.InboxFolder{
		"fold_off": {AutoReply: models.FolderAutoReply{Enabled: false, Mode: enum.AutoReplyModeAuto}},
		"fold_none": {AutoReply: models.FolderAutoReply{Enabled: true, Mode: enum.AutoReplyModeNone}},
	}, &fakeMessageRepo{})

	folder, err := s.folderPolicy(context.Background(), conversationInFolder("fold_off"))
	require.NoError(t, err)
	assert.Nil(t, folder)

	folder, err = s.folderPolicy(context.Background(), conversationInFolder("fold_none"))
	require.NoError(t, err)
	assert.Nil(t, folder)
}

func TestFolderPolicyActive(t *testing.T) {
	s := serviceWith(map[string]*models.InboxFolder{
		"fold_1": {AutoReply: models.FolderAutoReply{Enabled: true, Mode: enum.AutoReplyModeAuto}},
	}, &fakeMessageRepo{})

	folder, err := s.folderPolicy(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	require.NotNil(t, folder)
	assert.Equal(t, enum.AutoReplyModeAuto, folder.AutoReply.Mode)
}

func TestFolderPolicyUnfiled(t *testing.T) {
	s := serviceWith(nil, &fakeMessageRepo{})

	folder, err := s.folderPolicy(context.Background(), &models.Conversation{CompanyID: "comp_1"})
	require.NoError(t, err)
	assert.Nil(t, folder)
}

func TestIsEligibleLatestMessageFromClient(t *testing.T) {
	s := serviceWith(nil, &fakeMessageRepo{
		messages: []*models.InboxMessage{{IsFromClient: true}},
	})

	eligible, err := s.isEligible(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestIsEligibleLatestMessageIsOurs(t *testing.T) {
	s := serviceWith(nil, &fakeMessageRepo{
		messages: []*models.InboxMessage{
			{IsFromClient: true},
			{IsFromClient: false},
		},
	})

	eligible, err := s.isEligible(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestIsEligibleEmptyConversation(t *testing.T) {
	s := serviceWith(nil, &fakeMessageRepo{})

	eligible, err := s.isEligible(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestIsEligibleLoopPrevention(t *testing.T) {
	s := serviceWith(nil, &fakeMessageRepo{
		messages:      []*models.InboxMessage{{IsFromClient: true}},
		outboundSince: func(since time.Time) int64 { return 1 },
	})

	eligible, err := s.isEligible(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestIsEligibleManualReplySuppressesBot(t *testing.T) {
	now := time.Now()
	s := serviceWith(nil, &fakeMessageRepo{
		messages: []*models.InboxMessage{
			{IsFromClient: false, IsAutoReply: false, SentAt: now.Add(-30 * time.Second)},
			{IsFromClient: true, SentAt: now.Add(-5 * time.Second)},
		},
	})

	eligible, err := s.isEligible(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestIsEligibleOldOutboundDoesNotSuppress(t *testing.T) {
	now := time.Now()
	s := serviceWith(nil, &fakeMessageRepo{
		messages: []*models.InboxMessage{
			{IsFromClient: false, IsAutoReply: true, SentAt: now.Add(-10 * time.Minute)},
			{IsFromClient: true, SentAt: now.Add(-5 * time.Second)},
		},
	})

	eligible, err := s.isEligible(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestIsEligibleLoopWindowBound(t *testing.T) {
	s := serviceWith(nil, &fakeMessageRepo{
		messages: []*models.InboxMessage{{IsFromClient: true}},
		outboundSince: func(since time.Time) int64 {
			// The window must reach back loopPreventionWindow, not further.
			elapsed := time.Since(since)
			if elapsed > loopPreventionWindow+10*time.Second || elapsed < loopPreventionWindow-10*time.Second {
				return 99
			}
			return 0
		},
	})

	eligible, err := s.isEligible(context.Background(), conversationInFolder("fold_1"))
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Devis toiture", replySubject("Devis toiture"))
	assert.Equal(t, "Re: Devis toiture", replySubject("Re: Devis toiture"))
	assert.Equal(t, "Re: Devis toiture", replySubject("RE : Re: Devis toiture"))
	assert.Equal(t, "", replySubject(""))
}
