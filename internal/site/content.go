package site

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// DefaultHighlightStyle is the chroma style used for fenced code blocks.
const DefaultHighlightStyle = "dracula"

// Content is the rendered markdown shared by every style's page.
type Content struct {
	HTML string
	// CSS holds the highlighting rules, set only when some section has code.
	CSS string
}

// Section is one markdown file from the content directory.
type Section struct {
	ID     string
	Title  string
	Weight int
	HTML   string
}

// ContentRenderer turns content/*.md into page sections.
type ContentRenderer struct {
	md        goldmark.Markdown
	formatter *chromahtml.Formatter
	style     string
}

// NewContentRenderer configures goldmark for the given chroma style.
func NewContentRenderer(style string) (*ContentRenderer, error) {
	if style == "" {
		style = DefaultHighlightStyle
	}
	if _, ok := styles.Registry[style]; !ok {
		return nil, fmt.Errorf("unknown highlight style %q", style)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			meta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithUnsafe()),
	)

	return &ContentRenderer{
		md:        md,
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     style,
	}, nil
}

// RenderDir renders every markdown file in dir. A missing dir yields empty content.
func (r *ContentRenderer) RenderDir(dir string) (Content, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return Content{}, nil
	}
	if err != nil {
		return Content{}, fmt.Errorf("failed to read content dir: %w", err)
	}

	var sections []Section
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		source, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return Content{}, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		section, draft, err := r.RenderSection(strings.TrimSuffix(entry.Name(), ".md"), source)
		if err != nil {
			return Content{}, err
		}
		if draft {
			continue
		}
		sections = append(sections, section)
	}

	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Weight != sections[j].Weight {
			return sections[i].Weight < sections[j].Weight
		}
		return sections[i].ID < sections[j].ID
	})

	var out Content
	var b strings.Builder
	highlighted := false
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "<section class=\"content-section\" id=\"%s\">\n", html.EscapeString(s.ID))
		if s.Title != "" {
			fmt.Fprintf(&b, "<h2 class=\"content-section_title\">%s</h2>\n", html.EscapeString(s.Title))
		}
		b.WriteString(s.HTML)
		b.WriteString("</section>")
		if strings.Contains(s.HTML, `class="chroma"`) {
			highlighted = true
		}
	}
	out.HTML = b.String()

	if highlighted {
		css, err := r.CSS()
		if err != nil {
			return Content{}, err
		}
		out.CSS = css
	}
	return out, nil
}

// RenderSection converts one markdown document. draft is true when its front
// matter sets draft: true.
func (r *ContentRenderer) RenderSection(id string, source []byte) (Section, bool, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := r.md.Convert(source, &buf, parser.WithContext(ctx)); err != nil {
		return Section{}, false, fmt.Errorf("failed to convert %s: %w", id, err)
	}

	fm, err := meta.TryGet(ctx)
	if err != nil {
		return Section{}, false, fmt.Errorf("invalid front matter in %s: %w", id, err)
	}

	section := Section{ID: id, HTML: buf.String()}
	if title, ok := fm["title"].(string); ok {
		section.Title = title
	}
	switch w := fm["weight"].(type) {
	case int:
		section.Weight = w
	case float64:
		section.Weight = int(w)
	}
	draft, _ := fm["draft"].(bool)
	return section, draft, nil
}

// CSS returns the chroma class rules for the configured style.
func (r *ContentRenderer) CSS() (string, error) {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, styles.Get(r.style)); err != nil {
		return "", fmt.Errorf("failed to write highlight css: %w", err)
	}
	return buf.String(), nil
}
