package gemini_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/campusrag/llms/gemini"
)

func TestNewValidation(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := gemini.New(context.Background())
	assert.ErrorIs(t, err, gemini.ErrNoAPIKey)

	_, err = gemini.New(context.Background(), gemini.WithAPIKey("key"), gemini.WithEmbeddingModel(""))
	assert.ErrorIs(t, err, gemini.ErrInvalidModel)
}
