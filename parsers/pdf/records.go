package pdf

import "github.com/sevigo/campusrag/schema"

// NewRecord builds an unsaved record. It assigns no identifier or timestamp.
func NewRecord(heading, content, sourceFile string, page int) schema.ChunkRecord {
	return schema.ChunkRecord{
		Heading:    heading,
		Content:    content,
		SourceFile: sourceFile,
		PageNumber: &page,
	}
}

// EmitRecords maps chunks to records, preserving order.
func EmitRecords(chunks []Chunk, sourceFile string) []schema.ChunkRecord {
	records := make([]schema.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = NewRecord(c.Heading, c.Content, sourceFile, c.PageNumber)
	}
	return records
}
