package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/validators"
)

//go:embed templates
var templateFS embed.FS

const (
	layoutFile   = "templates/layout.html"
	fragmentGlob = "templates/fragments/*.html"
)

// Page is the data every full page template receives
type Page struct {
	Title       string
	CurrentUser *models.User
	CSRFToken   string
	Flashes     []string
	Errors      validators.FieldErrors
	Form        interface{}
	Data        interface{}
}

// Renderer renders the embedded templates. It implements echo.Renderer.
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// NewRenderer parses every page against the shared layout, and the fragments on their own
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"picture":     PictureURL,
		"linkify":     Linkify,
		"connectArgs": connectArgs,
		"splitLines":  splitLines,
	}

	r := &Renderer{pages: map[string]*template.Template{}}

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, file := range pages {
		if file == layoutFile {
			continue
		}
		t, err := template.New(path.Base(file)).Funcs(funcs).ParseFS(templateFS, layoutFile, fragmentGlob, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[path.Base(file)] = t
	}

	r.fragments, err = template.New("fragments").Funcs(funcs).ParseFS(templateFS, fragmentGlob)
	if err != nil {
		return nil, fmt.Errorf("parse fragments: %w", err)
	}
	return r, nil
}

// Render executes the layout with the named page, e.g. "home.html"
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// RenderString executes a fragment template and returns the HTML
func (r *Renderer) RenderString(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PictureURL turns a stored picture path into something an <img> can load
func PictureURL(p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return "/static/" + strings.TrimPrefix(p, "/")
}

// ConnectArgs feeds the connect_form fragment
type ConnectArgs struct {
	Condition string
	UserID    uint
	CSRFToken string
}

func connectArgs(condition string, userID uint, csrfToken string) ConnectArgs {
	return ConnectArgs{Condition: condition, UserID: userID, CSRFToken: csrfToken}
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// Linkify escapes s and wraps every http(s) URL in an anchor
func Linkify(s string) template.HTML {
	var b strings.Builder
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(s, -1) {
		b.WriteString(template.HTMLEscapeString(s[last:loc[0]]))
		u := template.HTMLEscapeString(s[loc[0]:loc[1]])
		fmt.Fprintf(&b, `<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, u, u)
		last = loc[1]
	}
	b.WriteString(template.HTMLEscapeString(s[last:]))
	return template.HTML(b.String())
}
