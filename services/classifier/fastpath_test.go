package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lokario/backoffice/internal/models"
)

func folderWithContext(id, context string) *models.InboxFolder {
	return &models.InboxFolder{
		ID:      id,
		AIRules: models.FolderAIRules{AutoClassify: true, Context: context},
	}
}

func TestExtractRulesFindsAddressesAndDomains(t *testing.T) {
	rules := extractRules(folderWithContext("fold_1", "Tous les mails de compta@fournisseur.fr ou du domaine @edf.fr"))

	assert.True(t, rules.addresses["compta@fournisseur.fr"])
	assert.True(t, rules.domains["edf.fr"])
}

func TestExtractRulesKeywordsSkipStopwords(t *testing.T) {
	rules := extractRules(folderWithContext("fold_1", "Mettre ici les factures et devis de chantier"))

	assert.Contains(t, rules.keywords, "factures")
	assert.Contains(t, rules.keywords, "devis")
	assert.Contains(t, rules.keywords, "chantier")
	assert.NotContains(t, rules.keywords, "les")
	assert.NotContains(t, rules.keywords, "ici")
}

func TestExtractRulesKeepsThreeLetterKeywords(t *testing.T) {
	rules := extractRules(folderWithContext("fold_1", "fournisseurs edf ovh"))

	assert.Contains(t, rules.keywords, "edf")
	assert.Contains(t, rules.keywords, "ovh")
}

func TestExtractRulesSenderPatterns(t *testing.T) {
	rules := extractRules(folderWithContext("fold_1", "expéditeur contenant lokario, from: billing, sender=noreply"))

	assert.Contains(t, rules.keywords, "lokario")
	assert.Contains(t, rules.keywords, "billing")
	assert.Contains(t, rules.keywords, "noreply")
	assert.NotContains(t, rules.keywords, "expéditeur")
	assert.NotContains(t, rules.keywords, "contenant")
}

func TestMatchesSenderAddressAndDomain(t *testing.T) {
	rules := extractRules(folderWithContext("fold_1", "compta@fournisseur.fr et @edf.fr"))

	assert.True(t, rules.matchesSender("Compta@Fournisseur.fr", ""))
	assert.True(t, rules.matchesSender("service.client@edf.fr", ""))
	assert.False(t, rules.matchesSender("jean@client.fr", ""))
	assert.False(t, rules.matchesSender("", ""))
}

func TestMatchesSenderKeywordInEmail(t *testing.T) {
	rules := extractRules(folderWithContext("fold_1", "expéditeur contenant lokario"))

	assert.True(t, rules.matchesSender("bob@lokario.fr", ""))
	assert.False(t, rules.matchesSender("jean@client.fr", ""))
}

func TestMatchesSenderKeywordInDisplayName(t *testing.T) {
	rules := extractRules(folderWithContext("fold_1", "fournisseur edf"))

	assert.True(t, rules.matchesSender("noreply@misc.example", "EDF Service Client"))
	assert.False(t, rules.matchesSender("noreply@misc.example", "Jean Dupont"))
}

func TestFastPathAssignsFolderBySenderRule(t *testing.T) {
	s := &ClassifierService{}
	folders := []*models.InboxFolder{
		folderWithContext("fold_compta", "factures de compta@fournisseur.fr"),
		folderWithContext("fold_lokario", "expéditeur contenant lokario"),
	}

	assert.Equal(t, "fold_lokario", s.fastPath(folders, "bob@lokario.fr", "Bob"))
	assert.Equal(t, "fold_compta", s.fastPath(folders, "compta@fournisseur.fr", ""))
	assert.Equal(t, "", s.fastPath(folders, "jean@client.fr", "Jean Dupont"))
}
