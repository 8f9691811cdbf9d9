// Package config loads the style configuration file and resolves every style
// against the shared defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid style configuration")

// legacyKeys maps misspelled keys still found in older configuration files.
var legacyKeys = map[string]string{
	"selfPotrait": "selfPortrait",
}

// Load reads the configuration file at path. Files ending in .json are decoded
// as JSON, everything else as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var f File
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &f, nil
}

// Resolve merges the defaults under every style record. The merge is shallow:
// a key present in the style replaces the default, even when its value is empty.
func Resolve(f *File) ([]ResolvedStyle, error) {
	defaults := normalize(f.Defaults)

	styles := make([]ResolvedStyle, 0, len(f.Styles))
	for i, raw := range f.Styles {
		merged := maps.Clone(defaults)
		if merged == nil {
			merged = make(map[string]any)
		}
		maps.Copy(merged, normalize(raw))

		style, err := decodeStyle(merged)
		if err != nil {
			return nil, fmt.Errorf("style %d: %w", i, err)
		}
		styles = append(styles, style)
	}
	return styles, nil
}

// LoadStyles loads, resolves and validates the configuration in one step.
func LoadStyles(path string) (*File, []ResolvedStyle, error) {
	f, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	styles, err := Resolve(f)
	if err != nil {
		return nil, nil, err
	}
	if err := Validate(styles); err != nil {
		return nil, nil, err
	}
	return f, styles, nil
}

// Validate checks the invariants shared by all resolved styles.
func Validate(styles []ResolvedStyle) error {
	if len(styles) == 0 {
		return fmt.Errorf("%w: no styles defined", ErrInvalidConfig)
	}

	var errs []error
	seen := make(map[string]int, len(styles))
	var roots []string
	for i, s := range styles {
		if !validSlug(s.Slug) {
			errs = append(errs, fmt.Errorf("%w: style %d has invalid slug %q", ErrInvalidConfig, i, s.Slug))
		} else if prev, ok := seen[s.Slug]; ok {
			errs = append(errs, fmt.Errorf("%w: slug %q used by styles %d and %d", ErrInvalidConfig, s.Slug, prev, i))
		} else {
			seen[s.Slug] = i
		}
		if s.Label == "" {
			errs = append(errs, fmt.Errorf("%w: style %q has no label", ErrInvalidConfig, s.Slug))
		}
		if s.Icon == "" {
			errs = append(errs, fmt.Errorf("%w: style %q has no icon", ErrInvalidConfig, s.Slug))
		}
		if s.Stylesheet == "" {
			errs = append(errs, fmt.Errorf("%w: style %q has no stylesheet", ErrInvalidConfig, s.Slug))
		}
		if s.Root {
			roots = append(roots, s.Slug)
		}
	}
	if len(roots) > 1 {
		errs = append(errs, fmt.Errorf("%w: more than one root style: %s", ErrInvalidConfig, strings.Join(roots, ", ")))
	}
	return errors.Join(errs...)
}

func validSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`)
}

func normalize(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if canonical, ok := legacyKeys[k]; ok {
			if _, set := raw[canonical]; set {
				continue
			}
			k = canonical
		}
		out[k] = v
	}
	return out
}

// decodeStyle turns a merged record into a typed style by round-tripping it
// through YAML, which also accepts the values produced by the JSON decoder.
func decodeStyle(record map[string]any) (ResolvedStyle, error) {
	var style ResolvedStyle
	data, err := yaml.Marshal(record)
	if err != nil {
		return style, fmt.Errorf("failed to encode style record: %w", err)
	}
	if err := yaml.Unmarshal(data, &style); err != nil {
		return style, fmt.Errorf("failed to decode style record: %w", err)
	}
	return style, nil
}
