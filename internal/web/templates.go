package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sync"

	"sitecms/internal/service"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Templates holds the page templates: the embedded set, optionally
// overridden by files in a directory. Reload swaps the set atomically.
type Templates struct {
	overrideDir string

	mu  sync.RWMutex
	set *template.Template
}

func LoadTemplates(overrideDir string) (*Templates, error) {
	t := &Templates{overrideDir: overrideDir}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Dir is the override directory, empty when none is configured.
func (t *Templates) Dir() string {
	return t.overrideDir
}

// Reload re-parses the templates. On error the previous set stays active.
func (t *Templates) Reload() error {
	set, err := template.New("site").ParseFS(embeddedTemplates, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse embedded templates: %w", err)
	}
	if t.overrideDir != "" {
		matches, err := filepath.Glob(filepath.Join(t.overrideDir, "*"+service.TemplateExt))
		if err != nil {
			return err
		}
		for _, path := range matches {
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read template override: %w", err)
			}
			if _, err := set.New(filepath.Base(path)).Parse(string(b)); err != nil {
				return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
			}
		}
	}
	t.mu.Lock()
	t.set = set
	t.mu.Unlock()
	return nil
}

// Render executes the named template.
func (t *Templates) Render(w io.Writer, name string, data any) error {
	t.mu.RLock()
	set := t.set
	t.mu.RUnlock()
	return set.ExecuteTemplate(w, name, data)
}
