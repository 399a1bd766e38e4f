package mailer

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/open_po.html
var defaultTemplate string

var (
	bodyPolicy     *bluemonday.Policy
	bodyPolicyOnce sync.Once
)

// bodyHTMLPolicy allows the formatting tags used by the notification body only.
func bodyHTMLPolicy() *bluemonday.Policy {
	bodyPolicyOnce.Do(func() {
		bodyPolicy = bluemonday.NewPolicy()
		bodyPolicy.AllowElements("p", "br", "em", "strong", "u", "b", "i")
		bodyPolicy.AllowStandardURLs()
		bodyPolicy.AllowAttrs("href").OnElements("a")
	})
	return bodyPolicy
}

// ComposerConfig configures the notification text.
type ComposerConfig struct {
	CompanyName   string
	TeamName      string
	SubjectPrefix string
	TemplatePath  string // Optional html/template file overriding the built-in body
}

// TemplateData is passed to the body template.
type TemplateData struct {
	Supplier string
	Company  string
	Team     string
}

// Composer renders subject and body for a supplier.
type Composer struct {
	cfg  ComposerConfig
	tmpl *template.Template
}

// NewComposer parses the configured template, or the built-in one.
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	source := defaultTemplate
	if cfg.TemplatePath != "" {
		content, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", cfg.TemplatePath, err)
		}
		source = string(content)
	}

	tmpl, err := template.New("body").Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}
	return &Composer{cfg: cfg, tmpl: tmpl}, nil
}

// Subject returns "<prefix><supplier>".
func (c *Composer) Subject(supplier string) string {
	return c.cfg.SubjectPrefix + supplier
}

// Body renders and sanitizes the HTML body.
func (c *Composer) Body(supplier string) (string, error) {
	var buf bytes.Buffer
	err := c.tmpl.Execute(&buf, TemplateData{
		Supplier: supplier,
		Company:  c.cfg.CompanyName,
		Team:     c.cfg.TeamName,
	})
	if err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	return bodyHTMLPolicy().Sanitize(buf.String()), nil
}
