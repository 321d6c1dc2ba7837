package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// TemplateStore loads authored mission templates from the filesystem.
// Templates stay on disk regardless of the active mission backend, the
// same way static authored content is file-backed while live state moves
// between tiers.
type TemplateStore struct {
	dir    string
	logger *slog.Logger
}

// NewTemplateStore creates a store over <baseDir>/templates.
func NewTemplateStore(baseDir string, logger *slog.Logger) *TemplateStore {
	return &TemplateStore{
		dir:    filepath.Join(baseDir, dirTemplates),
		logger: logger,
	}
}

// LoadTemplate reads <id>_template.json. Returns (nil, nil) when the
// template doesn't exist.
func (t *TemplateStore) LoadTemplate(ctx context.Context, templateID string) (*mission.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(t.dir, templateID+"_template.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.logger.Warn("Template not found", "template_id", templateID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templateID, err)
	}
	var tpl mission.Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template %s: %w", templateID, err)
	}
	if tpl.TemplateID == "" {
		tpl.TemplateID = templateID
	}
	return &tpl, nil
}

// ListTemplates returns the template ids present on disk.
func (t *TemplateStore) ListTemplates(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(t.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read templates dir: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, "_template.json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, "_template.json"))
	}
	return ids, nil
}
