package assets

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
)

const (
	MediaHTML = "text/html"
	MediaCSS  = "text/css"
)

// Minifier shrinks generated pages and the shared stylesheet. The zero value
// and a nil *Minifier pass content through untouched.
type Minifier struct {
	m *minify.M
}

// NewMinifier returns an enabled minifier for HTML and CSS.
func NewMinifier() *Minifier {
	m := minify.New()
	m.AddFunc(MediaCSS, css.Minify)
	m.Add(MediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return &Minifier{m: m}
}

// String minifies content of the given media type.
func (mf *Minifier) String(mediaType, content string) (string, error) {
	if mf == nil || mf.m == nil {
		return content, nil
	}
	out, err := mf.m.String(mediaType, content)
	if err != nil {
		return "", fmt.Errorf("failed to minify %s: %w", mediaType, err)
	}
	return out, nil
}
