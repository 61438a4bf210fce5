package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"notecal/internal/contextutil"
	"notecal/internal/frontmatter"
)

// NoteHandler serves markdown notes as rendered HTML pages.
type NoteHandler struct {
	root     string
	parser   goldmark.Markdown
	template *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title   string
	RelPath string
	Content template.HTML
}

// NewNoteHandler creates a handler serving notes under the vault root.
func NewNoteHandler(root string) *NoteHandler {
	tmpl := template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #d0d7de;
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      font-size: 2rem;
    }
    pre {
      background: #f6f8fa;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 6px;
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: #f6f8fa;
      padding: 2px 5px;
      border-radius: 4px;
    }
    pre code {
      background: transparent;
      padding: 0;
    }
    blockquote {
      border-left: 4px solid #d0d7de;
      padding-left: 1rem;
      margin-left: 0;
      color: #57606a;
    }
    .meta {
      color: #57606a;
      font-size: 0.95rem;
      margin-top: 0.5rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.RelPath}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &NoteHandler{
		root: root,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
				extension.Linkify,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithUnsafe(),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the requested note file as HTML. The frontmatter
// block is stripped; only the body is rendered.
func (h *NoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	rawRelPath := chi.URLParam(r, "*")
	decodedRelPath, err := url.PathUnescape(rawRelPath)
	if err != nil {
		http.Error(w, "invalid path encoding", http.StatusBadRequest)
		return
	}

	relPath, err := cleanRelPath(decodedRelPath)
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	absPath, err := buildAbsPath(h.root, relPath)
	if err != nil {
		logger.WarnContext(ctx, "invalid note path", "rel_path", relPath, "error", err)
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to read note", "path", absPath, "error", err)
		http.Error(w, "failed to read note", http.StatusInternalServerError)
		return
	}

	body := string(data)
	if _, stripped, ok := frontmatter.Extract(data); ok {
		body = stripped
	}

	htmlContent, err := h.renderMarkdown([]byte(body))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "path", absPath, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	pageData := notePageData{
		Title:   inferTitle(relPath),
		RelPath: relPath,
		Content: template.HTML(htmlContent),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "path", absPath, "error", err)
	}
}

func (h *NoteHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

func cleanRelPath(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("empty path")
	}

	cleaned := path.Clean("/" + trimmed)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", errors.New("invalid path")
	}

	for _, segment := range strings.Split(cleaned, "/") {
		if segment == ".." {
			return "", errors.New("path traversal detected")
		}
	}

	return cleaned, nil
}

func buildAbsPath(root, rel string) (string, error) {
	root = filepath.Clean(root)
	relFS := filepath.FromSlash(rel)
	abs := filepath.Join(root, relFS)

	if !strings.HasPrefix(abs, root+string(os.PathSeparator)) && abs != root {
		return "", errors.New("path escapes vault root")
	}
	return abs, nil
}

func inferTitle(rel string) string {
	base := filepath.Base(rel)
	if base == "." || base == "" {
		return "Note"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
