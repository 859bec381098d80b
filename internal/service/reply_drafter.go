package service

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
)

// TemplateDrafter renders reply text from a configured template over the
// comment's fields, e.g. "Thanks {{.Username}}!". A render that comes out
// empty is an error so a blank reply is never posted.
type TemplateDrafter struct {
	tmpl *template.Template
}

func NewTemplateDrafter(text string) (*TemplateDrafter, error) {
	tmpl, err := template.New("reply").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reply template: %w", err)
	}
	return &TemplateDrafter{tmpl: tmpl}, nil
}

func (d *TemplateDrafter) Draft(_ context.Context, comment graph.Comment) (string, error) {
	var buf strings.Builder
	if err := d.tmpl.Execute(&buf, comment); err != nil {
		return "", fmt.Errorf("failed to render reply template: %w", err)
	}
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return "", fmt.Errorf("reply template rendered empty text for comment %s", comment.ID)
	}
	return out, nil
}
