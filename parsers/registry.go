package parsers

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/sevigo/campusrag/schema"
)

var (
	ErrPluginNotFound  = errors.New("parser plugin not found")
	ErrInvalidPlugin   = errors.New("invalid parser plugin")
	ErrDuplicatePlugin = errors.New("parser plugin already registered")
)

// registry resolves documents to parsers. Plugins are consulted in the order
// they were registered; the first plugin to claim an extension owns it.
type registry struct {
	mu     sync.RWMutex
	byName map[string]schema.ParserPlugin
	byExt  map[string]schema.ParserPlugin
	order  []schema.ParserPlugin
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) ParserRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &registry{
		byName: make(map[string]schema.ParserPlugin),
		byExt:  make(map[string]schema.ParserPlugin),
		logger: logger.With("component", "parser_registry"),
	}
}

func (r *registry) RegisterParser(plugin schema.ParserPlugin) error {
	if plugin == nil {
		return fmt.Errorf("%w: nil", ErrInvalidPlugin)
	}
	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPlugin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}
	r.byName[name] = plugin
	r.order = append(r.order, plugin)

	for _, ext := range plugin.Extensions() {
		if ext = normalizeExt(ext); ext == "" {
			continue
		}
		if _, taken := r.byExt[ext]; !taken {
			r.byExt[ext] = plugin
		}
	}

	r.logger.Debug("Registered parser plugin", "parser", name, "extensions", plugin.Extensions())
	return nil
}

func (r *registry) GetParser(name string) (schema.ParserPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return plugin, nil
}

// GetParserForFile returns the first plugin whose CanHandle accepts the file,
// falling back to the owner of the file extension. info may be nil.
func (r *registry) GetParserForFile(path string, info fs.FileInfo) (schema.ParserPlugin, error) {
	r.mu.RLock()
	idx := slices.IndexFunc(r.order, func(p schema.ParserPlugin) bool { return p.CanHandle(path, info) })
	if idx >= 0 {
		plugin := r.order[idx]
		r.mu.RUnlock()
		return plugin, nil
	}
	r.mu.RUnlock()

	if plugin, err := r.GetParserForExtension(filepath.Ext(path)); err == nil {
		return plugin, nil
	}
	return nil, fmt.Errorf("%w for file %s", ErrPluginNotFound, path)
}

func (r *registry) GetParserForExtension(ext string) (schema.ParserPlugin, error) {
	ext = normalizeExt(ext)
	if ext == "" {
		return nil, fmt.Errorf("%w: empty extension", ErrPluginNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w for extension %s", ErrPluginNotFound, ext)
	}
	return plugin, nil
}

// GetAllParsers returns the plugins in registration order.
func (r *registry) GetAllParsers() []schema.ParserPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
