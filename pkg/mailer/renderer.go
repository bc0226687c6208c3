package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
)

// Renderer turns markdown templates into HTML emails.
// Parsed templates and layouts are cached; rendered output never is.
type Renderer struct {
	fs        fs.FS
	md        goldmark.Markdown
	layoutDir string

	mu        sync.RWMutex
	templates map[string]*parsedTemplate
	layouts   map[string]*template.Template
}

type parsedTemplate struct {
	metadata map[string]any
	body     *texttemplate.Template
}

// RenderResult is a rendered email body.
type RenderResult struct {
	Metadata map[string]any
	HTML     string
	Text     string // executed markdown, used as the plain text part
}

// NewRenderer reads templates from the root of fsys and layouts from layoutDir
// ("layouts" when empty).
func NewRenderer(fsys fs.FS, layoutDir string) *Renderer {
	if layoutDir == "" {
		layoutDir = "layouts"
	}
	return &Renderer{
		fs:        fsys,
		layoutDir: layoutDir,
		md:        goldmark.New(goldmark.WithExtensions(NewButtonExtension())),
		templates: make(map[string]*parsedTemplate),
		layouts:   make(map[string]*template.Template),
	}
}

// Render executes the named template with data and wraps it in layout.
// The layout receives .Content (trusted HTML) and .Metadata.
func (r *Renderer) Render(layout, name string, data any) (*RenderResult, error) {
	tmpl, err := cached(&r.mu, r.templates, name, r.parseTemplate)
	if err != nil {
		return nil, err
	}

	var markdown bytes.Buffer
	if err := tmpl.body.Execute(&markdown, data); err != nil {
		return nil, fmt.Errorf("%w: execute %s: %v", ErrRenderFailed, name, err)
	}

	var body bytes.Buffer
	if err := r.md.Convert(markdown.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("%w: convert %s: %v", ErrRenderFailed, name, err)
	}

	lt, err := cached(&r.mu, r.layouts, layout, r.parseLayout)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	err = lt.Execute(&out, map[string]any{
		"Content":  template.HTML(body.String()), //nolint:gosec // goldmark output, raw HTML disabled
		"Metadata": tmpl.metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, layout, err)
	}

	return &RenderResult{Metadata: tmpl.metadata, HTML: out.String(), Text: markdown.String()}, nil
}

func (r *Renderer) parseTemplate(name string) (*parsedTemplate, error) {
	content, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}

	parsed, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	body, err := texttemplate.New(name).Parse(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrRenderFailed, name, err)
	}
	return &parsedTemplate{metadata: parsed.Metadata, body: body}, nil
}

func (r *Renderer) parseLayout(name string) (*template.Template, error) {
	content, err := fs.ReadFile(r.fs, path.Join(r.layoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}

	lt, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse layout %s: %v", ErrRenderFailed, name, err)
	}
	return lt, nil
}

// cached returns m[key], parsing and storing it under the write lock on a miss.
func cached[T any](mu *sync.RWMutex, m map[string]T, key string, parse func(string) (T, error)) (T, error) {
	mu.RLock()
	v, ok := m[key]
	mu.RUnlock()
	if ok {
		return v, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if v, ok := m[key]; ok {
		return v, nil
	}

	v, err := parse(key)
	if err != nil {
		return v, err
	}
	m[key] = v
	return v, nil
}
