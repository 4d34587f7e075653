// Package assets embeds the page templates and static files, minifying them
// for production.
package assets

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/samber/lo"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

//go:embed templates/*.html static/*
var files embed.FS

// Media types the minifier knows about.
const (
	MediaHTML = "text/html"
	MediaCSS  = "text/css"
	MediaJS   = "application/javascript"
)

// File is a static file ready to serve.
type File struct {
	Body        []byte
	ContentType string
}

// Bundle is the parsed template set plus the static files.
type Bundle struct {
	Templates *template.Template
	static    map[string]File
	Minified  bool
}

// NewMinifier returns a minifier for HTML templates, CSS and JS. Go
// template actions in HTML survive because document and end tags are kept.
func NewMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(MediaCSS, css.Minify)
	m.AddFunc(MediaJS, js.Minify)
	m.Add(MediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

// Load parses the embedded templates with funcs and reads the static files.
// With minified set every asset goes through NewMinifier first.
func Load(minified bool, funcs template.FuncMap) (*Bundle, error) {
	var m *minify.M
	if minified {
		m = NewMinifier()
	}

	tmpl := template.New("").Funcs(funcs)
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		src, err := read(m, name, MediaHTML)
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.New(name).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	static := map[string]File{}
	err = fs.WalkDir(files, "static", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ct := contentType(p)
		body, err := read(m, p, mediaOf(ct))
		if err != nil {
			return err
		}
		static[strings.TrimPrefix(p, "static/")] = File{Body: body, ContentType: ct}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Bundle{Templates: tmpl, static: static, Minified: minified}, nil
}

func read(m *minify.M, name, media string) ([]byte, error) {
	src, err := files.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if m == nil || media == "" {
		return src, nil
	}
	out, err := m.Bytes(media, src)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", name, err)
	}
	return out, nil
}

func contentType(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// mediaOf maps a Content-Type to a minifier media type, or "" to skip.
func mediaOf(ct string) string {
	base, _, _ := strings.Cut(ct, ";")
	switch base {
	case MediaCSS:
		return MediaCSS
	case MediaJS, "text/javascript":
		return MediaJS
	case MediaHTML:
		return MediaHTML
	}
	return ""
}

// Static returns the named file relative to the static directory.
func (b *Bundle) Static(name string) (File, bool) {
	f, ok := b.static[strings.TrimPrefix(name, "/")]
	return f, ok
}

// StaticNames lists every static file.
func (b *Bundle) StaticNames() []string {
	return lo.Keys(b.static)
}
