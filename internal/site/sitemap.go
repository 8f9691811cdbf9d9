package site

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"stylesite/internal/config"
)

// Sitemap lists every style's page under baseURL.
func Sitemap(baseURL string, styles []config.ResolvedStyle, now time.Time) []byte {
	base := strings.TrimSuffix(baseURL, "/")
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	today := now.Format("2006-01-02")
	for _, s := range styles {
		buf.WriteString("  <url>\n")
		buf.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", attr(base+"/"+s.URL())))
		buf.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", today))
		buf.WriteString("    <changefreq>monthly</changefreq>\n")
		buf.WriteString("  </url>\n")
	}
	buf.WriteString(`</urlset>`)
	return buf.Bytes()
}
