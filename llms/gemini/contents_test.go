package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sevigo/campusrag/schema"
)

func TestToGeminiContents(t *testing.T) {
	contents, system, err := toGeminiContents([]schema.MessageContent{
		schema.NewSystemMessage("Jesteś asystentem uczelni."),
		schema.NewHumanMessage("Kiedy zaczyna się sesja?"),
		schema.NewAIMessage("3 lutego."),
		schema.NewHumanMessage("A kończy?"),
	})
	require.NoError(t, err)
	require.NotNil(t, system)
	assert.Equal(t, "Jesteś asystentem uczelni.", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "A kończy?", contents[2].Parts[0].Text)
}

func TestToGeminiContentsLateSystem(t *testing.T) {
	_, _, err := toGeminiContents([]schema.MessageContent{
		schema.NewHumanMessage("pytanie"),
		schema.NewSystemMessage("za późno"),
	})
	assert.ErrorIs(t, err, ErrSystemMessage)
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromText("Sesja "),
				genai.NewPartFromText("zimowa"),
			}, genai.RoleModel)},
			{},
		},
	}
	assert.Equal(t, "Sesja zimowa", responseText(resp))
}
