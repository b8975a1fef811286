package dto

// ClassificationItem is one conversation summary submitted to the model.
type ClassificationItem struct {
	ConversationID string `json:"id"`
	Subject        string `json:"subject"`
	Sender         string `json:"sender"`
	Excerpt        string `json:"excerpt"`
}

// ClassificationFolder describes a candidate folder for the model.
type ClassificationFolder struct {
	FolderID string `json:"id"`
	Name     string `json:"name"`
	Context  string `json:"context"`
}

type ClassificationRequest struct {
	Items   []ClassificationItem
	Folders []ClassificationFolder
}

// ClassificationResult maps a conversation to a folder. FolderID is empty
// when the model declined to classify.
type ClassificationResult struct {
	ConversationID string `json:"id"`
	FolderID       string `json:"folder_id"`
}

// ReplyDraftRequest carries everything the model needs to draft a reply.
type ReplyDraftRequest struct {
	CompanyName   string
	ReplyPrompt   string
	KnowledgeBase string
	FolderContext string
	Subject       string
	SenderName    string
	History       []ReplyHistoryEntry
}

type ReplyHistoryEntry struct {
	FromClient bool
	Body       string
}
