package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassificationResponseBareArray(t *testing.T) {
	results, err := parseClassificationResponse(`[{"id":"conv_1","folder_id":"fold_1"},{"id":"conv_2","folder_id":""}]`)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "conv_1", results[0].ConversationID)
	assert.Equal(t, "fold_1", results[0].FolderID)
	assert.Equal(t, "", results[1].FolderID)
}

func TestParseClassificationResponseFencedArray(t *testing.T) {
	content := "Voici le résultat :\n```json\n[{\"id\":\"conv_1\",\"folder_id\":\"fold_2\"}]\n```\nBonne journée."
	results, err := parseClassificationResponse(content)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fold_2", results[0].FolderID)
}

func TestParseClassificationResponseRejectsProse(t *testing.T) {
	_, err := parseClassificationResponse("Je ne peux pas classer ces conversations.")
	assert.Error(t, err)
}

func TestParseClassificationResponseRejectsBrokenJSON(t *testing.T) {
	_, err := parseClassificationResponse(`[{"id": "conv_1", "folder_id":`)
	assert.Error(t, err)
}
