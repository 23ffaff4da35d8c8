package parsers

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/sevigo/campusrag/parsers/pdf"
	"github.com/sevigo/campusrag/schema"
)

// ParserRegistry tracks registered document parsers
type ParserRegistry interface {
	RegisterParser(plugin schema.ParserPlugin) error
	GetParser(name string) (schema.ParserPlugin, error)
	GetParserForFile(path string, info fs.FileInfo) (schema.ParserPlugin, error)
	GetParserForExtension(ext string) (schema.ParserPlugin, error)
	GetAllParsers() []schema.ParserPlugin
}

// RegisterPDFPlugins builds a registry with the calendar and structured PDF
// parsers. The calendar parser is registered first so it wins for file names
// matching its pattern.
func RegisterPDFPlugins(logger *slog.Logger, opts ...pdf.PluginOption) (ParserRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := NewRegistry(logger)

	factories := []struct {
		name    string
		factory func(*slog.Logger) schema.ParserPlugin
	}{
		{"calendar", func(l *slog.Logger) schema.ParserPlugin { return pdf.NewCalendarPlugin(l, opts...) }},
		{"structured", func(l *slog.Logger) schema.ParserPlugin { return pdf.NewStructuredPlugin(l, opts...) }},
	}

	for _, f := range factories {
		plugin := f.factory(logger.With("plugin", f.name))
		if err := registry.RegisterParser(plugin); err != nil {
			return registry, fmt.Errorf("failed to register plugin %s: %w", f.name, err)
		}
	}

	logger.Info("Parser plugins registered", "count", len(registry.GetAllParsers()))
	return registry, nil
}
