package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData is what every page template receives.
type pageData struct {
	Title   string
	Chrome  string
	Path    string
	Session *service.Session
	Flashes []string
	Error   string
	Form    url.Values
	Data    interface{}
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"excerpt": func(s string, n int) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n]) + "..."
	},
	// imageSrc allows stored image data URLs in src attributes. Anything
	// that is not a data:image URL renders empty.
	"imageSrc": func(s *string) template.URL {
		if s == nil || !strings.HasPrefix(*s, "data:image/") {
			return ""
		}
		return template.URL(*s)
	},
	"join": strings.Join,
}

// parseTemplates pairs layout.html with every other page, keyed by file name
// without extension.
func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[name] = t
	}
	return templates, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	t, ok := h.pages[name]
	if !ok {
		zerolog.Ctx(r.Context()).Error().Str("template", name).Msg("[web.render] template not found")
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	data.Path = r.URL.Path
	data.Chrome = Chrome(r.URL.Path)
	data.Session = service.SessionFromContext(r.Context())
	data.Flashes = append(data.Flashes, h.popFlashes(w, r)...)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("[web.render] render failed")
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// postView is a post with its interaction data for templates.
type postView struct {
	*domain.Post
	Ref      *domain.Reference
	Likes    int
	Comments []*domain.Comment
	Liked    bool
}
