package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/store"
	fakestore "github.com/sevigo/campusrag/vectorstores/fake"
)

func TestWriteChunks(t *testing.T) {
	page := 2
	recs := []schema.ChunkRecord{
		{Heading: "Rekrutacja", Content: "Zasady przyjęć.", SourceFile: "a.pdf", PageNumber: &page},
		{Content: "Bez nagłówka."},
	}

	var buf bytes.Buffer
	require.NoError(t, writeChunks(&buf, recs))

	want := "--- Chunk 1 ---\nHEADING: Rekrutacja\nCONTENT:\nZasady przyjęć.\n\n\n" +
		"--- Chunk 2 ---\nHEADING: NONE\nCONTENT:\nBez nagłówka.\n\n\n"
	assert.Equal(t, want, buf.String())
}

func TestLessonDocument(t *testing.T) {
	doc := lessonDocument(store.LessonRow{
		ID:         42,
		GroupCode:  "WCY24IV1N2",
		CourseCode: "AM",
		Date:       "2024_10_05",
		BlockID:    "block3",
		Room:       "203",
		Building:   "65",
	})

	assert.Equal(t, "lesson-42", doc.Metadata["id"])
	assert.Equal(t, "timetable:WCY24IV1N2", doc.Metadata["source_file"])
	assert.Contains(t, doc.PageContent, "Grupa WCY24IV1N2, 2024-10-05")
	assert.Contains(t, doc.PageContent, "sala 203, budynek 65")
}

func TestRootCommandLoadsConfig(t *testing.T) {
	t.Setenv("CAMPUSRAG_DB_PATH", filepath.Join(t.TempDir(), "chunks.db"))

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"timetable", "--log-level", "error"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, errNoGroups)
}

func TestRootCommandRejectsMissingConfig(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "timetable"})

	assert.Error(t, cmd.Execute())
}

func TestPruneSources(t *testing.T) {
	ctx := context.Background()
	vs := fakestore.New()
	_, err := vs.AddDocuments(ctx, []schema.Document{
		schema.NewDocument("stary fragment", map[string]any{"source_file": "regulamin.pdf"}),
		schema.NewDocument("plan", map[string]any{"source_file": "timetable:G1"}),
	})
	require.NoError(t, err)

	err = pruneSources(ctx, vs, []schema.Document{
		schema.NewDocument("nowy fragment", map[string]any{"source_file": "regulamin.pdf"}),
		schema.NewDocument("bez źródła", nil),
	})
	require.NoError(t, err)

	left := vs.Docs()
	require.Len(t, left, 1)
	assert.Equal(t, "timetable:G1", left[0].Metadata["source_file"])
}
