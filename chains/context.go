package chains

import (
	"strings"

	"github.com/sevigo/campusrag/schema"
)

// NoContext replaces the context block when retrieval finds nothing.
const NoContext = "No relevant documents found."

const contextSeparator = "\n\n---\n\n"

func joinContext(docs []schema.Document) string {
	if len(docs) == 0 {
		return NoContext
	}
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, contextSeparator)
}

// SourceOf renders the origin of a retrieved document as "file:page". A
// missing page renders as None.
func SourceOf(doc schema.Document) string {
	file := doc.MetaString("source_file")
	if file == "" {
		file = "None"
	}
	page := doc.MetaString("page_number")
	if page == "" {
		page = "None"
	}
	return file + ":" + page
}
