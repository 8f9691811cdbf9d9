// Package site renders a style's page from the shared template by replacing a
// fixed set of markers.
package site

import (
	"fmt"
	"html"
	"strings"

	"stylesite/internal/config"
)

// Template markers. Each is replaced at its first occurrence only.
const (
	MarkerThemeColor  = "<!--% THEME COLOR %-->"
	MarkerStylesheets = "<!--% STYLESHEET INSERTS %-->"
	MarkerMenu        = "<!--% MENU ITEM INSERTS %-->"
	MarkerScripts     = "<!--% SCRIPT INSERTS %-->"
	MarkerContent     = "<!--% CONTENT INSERTS %-->"
)

// Indentation of each insert inside template.html.
var (
	headerTabs = strings.Repeat("\t", 2)
	scriptTabs = strings.Repeat("\t", 3)
	menuTabs   = strings.Repeat("\t", 4)
)

// Page renders the template for current. styles is the full list, in menu order.
func Page(tmpl string, styles []config.ResolvedStyle, current config.ResolvedStyle, content string) string {
	out := tmpl
	out = strings.Replace(out, MarkerThemeColor, ThemeColor(current), 1)
	out = strings.Replace(out, MarkerStylesheets, Stylesheets(styles, current), 1)
	out = strings.Replace(out, MarkerMenu, Menu(styles, current), 1)
	out = strings.Replace(out, MarkerScripts, Scripts(current), 1)
	out = strings.Replace(out, MarkerContent, content, 1)
	return out
}

// ThemeColor is the theme-color meta tag for browsers that tint their chrome.
func ThemeColor(s config.ResolvedStyle) string {
	return fmt.Sprintf(`<meta name="theme-color" content="%s" />`, attr(s.ThemeColor))
}

// Stylesheets links every style's stylesheet. Only current's is active; the
// others are alternates the browser can switch to without navigating.
func Stylesheets(styles []config.ResolvedStyle, current config.ResolvedStyle) string {
	links := make([]string, 0, len(styles))
	for _, s := range styles {
		rel := "alternate stylesheet"
		if s.Slug == current.Slug {
			rel = "stylesheet"
		}
		links = append(links, fmt.Sprintf(`<link href="/css/%s" rel="%s" title="%s" />`,
			attr(s.Stylesheet), rel, attr(s.Label)))
	}
	return strings.Join(links, "\n"+headerTabs)
}

// Menu renders one switcher entry per style.
func Menu(styles []config.ResolvedStyle, current config.ResolvedStyle) string {
	items := make([]string, 0, len(styles))
	for _, s := range styles {
		class := "love-bar_link"
		if s.Slug == current.Slug {
			class += " love-bar_link__selected"
		}
		lines := []string{
			"<a",
			fmt.Sprintf("\tclass=\"%s\"", class),
			fmt.Sprintf("\thref=\"/%s\"", attr(s.URL())),
			fmt.Sprintf("\tid=\"love-bar_%s\"", attr(s.Slug)),
			fmt.Sprintf(">\t%s</a>", html.EscapeString(s.Label)),
		}
		items = append(items, strings.Join(lines, "\n"+menuTabs))
	}
	return strings.Join(items, "\n"+menuTabs)
}

// Scripts renders module script tags for the style's npm scripts followed by
// its own scripts.
func Scripts(s config.ResolvedStyle) string {
	if len(s.JS) == 0 && len(s.NPMJS) == 0 {
		return ""
	}

	var b strings.Builder
	if len(s.NPMJS) > 0 {
		b.WriteString(scriptTags(s.NPMJS))
		b.WriteString("\n" + scriptTabs)
	}
	b.WriteString(scriptTags(s.JS))
	return b.String()
}

func scriptTags(files []string) string {
	tags := make([]string, 0, len(files))
	for _, f := range files {
		tags = append(tags, fmt.Sprintf(`<script defer src="/js/%s" type="module"></script>`, attr(f)))
	}
	return strings.Join(tags, "\n"+scriptTabs)
}

// IconCSS sets each menu entry's background to its style's heart icon.
func IconCSS(styles []config.ResolvedStyle) string {
	rules := make([]string, 0, len(styles))
	for _, s := range styles {
		rules = append(rules, strings.Join([]string{
			fmt.Sprintf("#love-bar_%s {", s.Slug),
			fmt.Sprintf("\tbackground-image: url(\"/images/hearts/%s\");", s.Icon),
			"}",
		}, "\n"))
	}
	return strings.Join(rules, "\n")
}

// SharedCSS appends the icon rules (and any extra CSS) to the base stylesheet.
func SharedCSS(base string, styles []config.ResolvedStyle, extra ...string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	b.WriteString(IconCSS(styles))
	for _, e := range extra {
		if e == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(e)
	}
	return b.String()
}

func attr(s string) string {
	return html.EscapeString(s)
}
