package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/store"
	"github.com/sevigo/campusrag/timetable"
	"github.com/sevigo/campusrag/vectorstores"
)

func indexCmd(a *app) *cobra.Command {
	var recreate bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed stored chunks and lessons into the vector store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			docs, err := a.storedDocuments(ctx, s)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to index")
				return nil
			}

			p, err := a.provider(ctx)
			if err != nil {
				return fmt.Errorf("create llm: %w", err)
			}
			vs, err := a.vectorStore(p)
			if err != nil {
				return fmt.Errorf("connect qdrant: %w", err)
			}
			defer vs.Close()

			if recreate {
				err = vs.DeleteCollection(ctx, a.cfg.Qdrant.Collection)
			} else {
				err = pruneSources(ctx, vs, docs)
			}
			if err != nil && !errors.Is(err, vectorstores.ErrCollectionNotFound) {
				return fmt.Errorf("clear previous points: %w", err)
			}

			ids, err := vs.AddDocuments(ctx, docs)
			if err != nil {
				return fmt.Errorf("index documents: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %s\n", len(ids), a.cfg.Qdrant.Collection)
			return nil
		},
	}

	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop the whole collection before indexing instead of only the indexed sources")
	return cmd
}

// pruneSources deletes previously indexed points of every source in docs, so
// chunks that disappeared from a source do not linger in the index.
func pruneSources(ctx context.Context, vs vectorstores.VectorStore, docs []schema.Document) error {
	seen := make(map[string]bool)
	for _, d := range docs {
		src := d.MetaString("source_file")
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		if err := vs.DeleteDocumentsByFilter(ctx, map[string]any{"source_file": src}); err != nil {
			return fmt.Errorf("prune %s: %w", src, err)
		}
	}
	return nil
}

// storedDocuments collects every stored chunk and the lessons of the
// configured groups.
func (a *app) storedDocuments(ctx context.Context, s *store.Store) ([]schema.Document, error) {
	chunks, err := s.ListChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	docs := make([]schema.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, c.ToDocument())
	}

	for _, group := range a.cfg.Timetable.Groups {
		rows, err := s.LessonsByGroup(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("list lessons of %s: %w", group, err)
		}
		for _, r := range rows {
			docs = append(docs, lessonDocument(r))
		}
	}
	return docs, nil
}

func lessonDocument(r store.LessonRow) schema.Document {
	l := timetable.Lesson{
		Date:         r.Date,
		BlockID:      r.BlockID,
		CourseCode:   r.CourseCode,
		Info:         r.Info,
		TeacherName:  r.TeacherName,
		TeacherShort: r.TeacherShort,
		Room:         r.Room,
		Building:     r.Building,
	}
	doc := l.Document(r.GroupCode)
	doc.Metadata["id"] = fmt.Sprintf("lesson-%d", r.ID)
	return doc
}
