package view

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	partialsDir = "partials"
	ext         = ".html"
	localsKey   = "_view_locals"
)

// ErrTemplateNotFound is returned when a page name does not match a template.
var ErrTemplateNotFound = errors.New("view: template not found")

// Renderer renders html/template pages from a filesystem. Every page is
// parsed together with all templates under partials/.
type Renderer struct {
	fsys   fs.FS
	reload bool
	funcs  template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithReload re-parses templates on every render.
func WithReload(enabled bool) Option {
	return func(r *Renderer) {
		r.reload = enabled
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		for name, fn := range funcs {
			r.funcs[name] = fn
		}
	}
}

// New parses all pages in fsys.
func New(fsys fs.FS, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		fsys: fsys,
		funcs: template.FuncMap{
			"year": func() int { return time.Now().Year() },
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	pages, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.pages = pages
	return r, nil
}

// Render implements echo.Renderer. data is merged over the request locals
// when it is a map.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, err := r.lookup(name)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, mergeLocals(c, data))
}

// Has reports whether a page exists.
func (r *Renderer) Has(name string) bool {
	_, err := r.lookup(name)
	return err == nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "/"), ext)

	if r.reload {
		pages, err := r.parse()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.pages = pages
		r.mu.Unlock()
	}

	r.mu.RLock()
	tmpl, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return tmpl, nil
}

func (r *Renderer) parse() (map[string]*template.Template, error) {
	var partials, pages []string
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ext {
			return nil
		}
		if strings.HasPrefix(p, partialsDir+"/") {
			partials = append(partials, p)
		} else {
			pages = append(pages, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk templates: %w", err)
	}

	base := template.New("").Funcs(r.funcs)
	if len(partials) > 0 {
		if base, err = base.ParseFS(r.fsys, partials...); err != nil {
			return nil, fmt.Errorf("parse partials: %w", err)
		}
	}

	out := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		src, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		name := strings.TrimSuffix(p, ext)
		tmpl, err := clone.New(name).Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		out[name] = tmpl
	}
	return out, nil
}

// SetLocal exposes value to every template rendered for this request.
func SetLocal(c echo.Context, key string, value any) {
	Locals(c)[key] = value
}

// Locals returns the per-request template data, creating it on first use.
func Locals(c echo.Context) map[string]any {
	if m, ok := c.Get(localsKey).(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	c.Set(localsKey, m)
	return m
}

func mergeLocals(c echo.Context, data interface{}) interface{} {
	if c == nil {
		return data
	}
	locals, _ := c.Get(localsKey).(map[string]any)

	var fields map[string]any
	switch d := data.(type) {
	case nil:
	case map[string]any:
		fields = d
	case echo.Map:
		fields = d
	default:
		return data
	}

	merged := make(map[string]any, len(locals)+len(fields))
	for k, v := range locals {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}
