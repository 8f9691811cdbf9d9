package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// File is the decoded style configuration file (builds.json).
type File struct {
	Defaults map[string]any   `yaml:"defaults" json:"defaults"`
	Styles   []map[string]any `yaml:"styles" json:"styles"`
	BaseURL  string           `yaml:"baseUrl" json:"baseUrl"`

	// Bundle lists scripts under js/ that are bundled with their npm
	// imports instead of being copied as-is.
	Bundle       []string     `yaml:"bundle" json:"bundle"`
	VendorCopies []VendorCopy `yaml:"vendorCopies" json:"vendorCopies"`
}

// VendorCopy copies the files of a node_modules directory into the output
// tree, e.g. decoder libraries a bundled script loads at runtime.
type VendorCopy struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// ResolvedStyle is one style after its record has been merged over the defaults.
type ResolvedStyle struct {
	Slug         string     `yaml:"slug"`
	Label        string     `yaml:"label"`
	Icon         string     `yaml:"icon"`
	Stylesheet   string     `yaml:"stylesheet"`
	ThemeColor   string     `yaml:"themeColor"`
	Images       StringList `yaml:"images"`
	JS           StringList `yaml:"js"`
	NPMJS        StringList `yaml:"npmJs"`
	SelfPortrait StringList `yaml:"selfPortrait"`
	NPMFonts     []NPMFont  `yaml:"npmFonts"`
	Root         bool       `yaml:"root"`
}

// URL is the site-relative path of the style's page, without the leading slash.
func (s ResolvedStyle) URL() string {
	if s.Root {
		return ""
	}
	return s.Slug + "/"
}

// NPMFont points at web font files shipped inside an npm package.
// Files are named <FilePrefix><Style>.<Extension>.
type NPMFont struct {
	Package    string   `yaml:"package"`
	FilePrefix string   `yaml:"filePrefix"`
	Styles     []string `yaml:"styles"`
	Extensions []string `yaml:"extensions"`
}

// Files lists the font file names relative to the package directory.
func (f NPMFont) Files() []string {
	var files []string
	for _, style := range f.Styles {
		for _, ext := range f.Extensions {
			files = append(files, fmt.Sprintf("%s%s.%s", f.FilePrefix, style, ext))
		}
	}
	return files
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*l = nil
			return nil
		}
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}
