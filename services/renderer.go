package services

import (
	"context"
	"fmt"
	"regexp"

	"stayhub-backend/models"

	"go.uber.org/zap"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

type TemplateReader interface {
	GetActiveByKey(ctx context.Context, key string) (*models.MessageTemplate, error)
}

// Renderer substitutes {{name}} placeholders. Missing variables are left in
// place and logged; a partial render is still a successful render.
type Renderer struct {
	templates TemplateReader
	logger    *zap.Logger
}

func NewRenderer(templates TemplateReader, logger *zap.Logger) *Renderer {
	return &Renderer{templates: templates, logger: logger}
}

// Render looks up the active template by key and renders it.
// Returns apperrors.ErrTemplateNotFound when no active template matches.
func (r *Renderer) Render(ctx context.Context, key string, vars map[string]any) (string, error) {
	t, err := r.templates.GetActiveByKey(ctx, key)
	if err != nil {
		return "", err
	}
	return r.RenderContent(t.Key, t.Content, vars), nil
}

func (r *Renderer) RenderContent(key, content string, vars map[string]any) string {
	out, unresolved := Substitute(content, vars)
	if len(unresolved) > 0 {
		r.logger.Warn("undefined template variables",
			zap.String("template", key),
			zap.Strings("variables", unresolved))
	}
	return out
}

// Substitute replaces every {{name}} with the stringified value from vars and
// returns the names left unresolved, in order of first appearance.
// Values are inserted verbatim; placeholders inside a value are not expanded.
func Substitute(content string, vars map[string]any) (string, []string) {
	var unresolved []string
	seen := make(map[string]bool)
	out := placeholderPattern.ReplaceAllStringFunc(content, func(m string) string {
		name := m[2 : len(m)-2]
		if value, ok := vars[name]; ok {
			return stringify(value)
		}
		if !seen[name] {
			seen[name] = true
			unresolved = append(unresolved, name)
		}
		return m
	})
	return out, unresolved
}

// Placeholders lists distinct {{name}} occurrences in content.
func Placeholders(content string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	default:
		return fmt.Sprint(t)
	}
}
