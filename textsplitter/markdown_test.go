package textsplitter_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/textsplitter"
)

const departmentPage = `Wstęp przed nagłówkiem.

# Rekrutacja

Terminy naboru.

- punkt pierwszy
- punkt drugi

#### Szczegóły

Więcej informacji.

## Pusty

## Kontakt
Sekretariat, pokój 12.
`

func TestMarkdownSections(t *testing.T) {
	sections := textsplitter.MarkdownSections(departmentPage)
	require.Len(t, sections, 3)

	assert.Equal(t, textsplitter.Section{Heading: textsplitter.UndefinedHeading, Body: "Wstęp przed nagłówkiem."}, sections[0])

	assert.Equal(t, "Rekrutacja", sections[1].Heading)
	assert.True(t, strings.HasPrefix(sections[1].Body, "Terminy naboru."))
	assert.Contains(t, sections[1].Body, "- punkt pierwszy\n- punkt drugi")
	assert.Contains(t, sections[1].Body, "#### Szczegóły", "deep headings stay in the body")
	assert.True(t, strings.HasSuffix(sections[1].Body, "Więcej informacji."))

	assert.Equal(t, textsplitter.Section{Heading: "Kontakt", Body: "Sekretariat, pokój 12."}, sections[2])

	assert.Empty(t, textsplitter.MarkdownSections(""))
}

func TestMarkdownSplit(t *testing.T) {
	md := "# Stypendia\n\nAaaa. Bbbb. Cccc.\n\n# Regulamin\n\n" + strings.Repeat("x", 25) + "\n"

	m := textsplitter.NewMarkdown(textsplitter.WithChunkSize(10), textsplitter.WithOverlapSentences(0))
	got, err := m.Split(md)
	require.NoError(t, err)

	want := []textsplitter.Section{
		{Heading: "Stypendia", Body: "Aaaa. Bbbb."},
		{Heading: "Stypendia", Body: "Cccc."},
		{Heading: "Regulamin", Body: strings.Repeat("x", 10)},
		{Heading: "Regulamin", Body: strings.Repeat("x", 10)},
		{Heading: "Regulamin", Body: strings.Repeat("x", 5)},
	}
	assert.Equal(t, want, got)
}

func TestMarkdownSplitKeepsOverlapPieces(t *testing.T) {
	m := textsplitter.NewMarkdown(textsplitter.WithChunkSize(10), textsplitter.WithOverlapSentences(1))
	got, err := m.Split("# Stypendia\n\nAaaa. Bbbb. Cccc.\n")
	require.NoError(t, err)

	assert.Equal(t, []textsplitter.Section{
		{Heading: "Stypendia", Body: "Aaaa. Bbbb."},
		{Heading: "Stypendia", Body: "Bbbb. Cccc."},
	}, got)
}

func TestMarkdownSplitDocuments(t *testing.T) {
	m := textsplitter.NewMarkdown()
	docs := []schema.Document{schema.NewDocument(departmentPage, map[string]any{"source_file": "https://wydzial.example/"})}

	out, err := m.SplitDocuments(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, d := range out {
		assert.Equal(t, "https://wydzial.example/", d.Metadata["source_file"])
		assert.Equal(t, i, d.Metadata["chunk_index"])
	}
	assert.Equal(t, "Kontakt", out[2].Metadata["heading"])
}
