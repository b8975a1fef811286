package ingestion

import (
	"context"

	"github.com/lokario/backoffice/internal/models"
)

// defaultFolders seed a new tenant's inbox on the first mailbox sync. The
// classification context feeds both the rule fast path and the LLM.
var defaultFolders = []models.InboxFolder{
	{
		Name:       "Devis",
		FolderType: "quotes",
		AIRules:    models.FolderAIRules{AutoClassify: true, Context: "demandes de devis, estimation, tarif, prix"},
	},
	{
		Name:       "Factures",
		FolderType: "invoices",
		AIRules:    models.FolderAIRules{AutoClassify: true, Context: "factures, paiement, règlement, relance de facture"},
	},
	{
		Name:       "Rendez-vous",
		FolderType: "appointments",
		AIRules:    models.FolderAIRules{AutoClassify: true, Context: "rendez-vous, disponibilité, planning, horaire"},
	},
	{
		Name:       "SAV",
		FolderType: "support",
		AIRules:    models.FolderAIRules{AutoClassify: true, Context: "problème, réclamation, garantie, malfaçon"},
	},
}

// ensureDefaultFolders seeds the default folder set for tenants that have
// none yet. Existing folders, even a partial set, are left untouched.
func (s *IngestionService) ensureDefaultFolders(ctx context.Context, companyID string) error {
	existing, err := s.repos.FolderRepository.ListByCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, folder := range defaultFolders {
		folder.CompanyID = companyID
		if err := s.repos.FolderRepository.Create(ctx, &folder); err != nil {
			return err
		}
	}
	s.log.Infof("seeded %d default folders for company %s", len(defaultFolders), companyID)
	return nil
}
