package fake_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/vectorstores"
	"github.com/sevigo/campusrag/vectorstores/fake"
)

var _ vectorstores.VectorStore = (*fake.Store)(nil)

func seed(t *testing.T, s *fake.Store) {
	t.Helper()
	_, err := s.AddDocuments(context.Background(), []schema.Document{
		schema.NewDocument("Sesja egzaminacyjna zimowa | 27.01.2025 - 09.02.2025", map[string]any{"source_file": "kalendarz.pdf", "page_number": 0}),
		schema.NewDocument("Rekrutacja na studia trwa do lipca", map[string]any{"source_file": "informator.pdf", "page_number": 2}),
		schema.NewDocument("Sesja poprawkowa | 10.02.2025 - 16.02.2025", map[string]any{"source_file": "kalendarz.pdf", "page_number": 1}),
	})
	require.NoError(t, err)
}

func TestSimilaritySearchRanksByOverlap(t *testing.T) {
	s := fake.New()
	seed(t, s)
	ctx := context.Background()

	scored, err := s.SimilaritySearchWithScores(ctx, "kiedy jest sesja zimowa", 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Contains(t, scored[0].Document.PageContent, "zimowa")
	assert.Contains(t, scored[1].Document.PageContent, "poprawkowa")
	assert.Greater(t, scored[0].Score, scored[1].Score)

	docs, err := s.SimilaritySearch(ctx, "sesja", 5, vectorstores.WithFilter("page_number", 1))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].PageContent, "poprawkowa")

	docs, err = s.SimilaritySearch(ctx, "sesja zimowa", 5, vectorstores.WithScoreThreshold(0.9))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDeleteDocumentsByFilter(t *testing.T) {
	s := fake.New()
	seed(t, s)
	ctx := context.Background()

	require.Error(t, s.DeleteDocumentsByFilter(ctx, nil))
	require.NoError(t, s.DeleteDocumentsByFilter(ctx, map[string]any{"source_file": "kalendarz.pdf"}))

	docs := s.Docs()
	require.Len(t, docs, 1)
	assert.Equal(t, "informator.pdf", docs[0].Metadata["source_file"])
}

func TestNamespaces(t *testing.T) {
	s := fake.New()
	seed(t, s)
	ctx := context.Background()

	_, err := s.AddDocuments(ctx, []schema.Document{schema.NewDocument("plan zajęć", nil)}, vectorstores.WithNameSpace("timetable"))
	require.NoError(t, err)

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fake-collection", "timetable"}, names)

	docs, err := s.SimilaritySearch(ctx, "plan", 5, vectorstores.WithNameSpace("timetable"))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Len(t, s.Docs(), 3)
}
