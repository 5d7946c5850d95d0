// Package assets provides the embedded note templates shipped with the
// library. Custom templates are supplied by callers at composition time;
// this package only guarantees a valid built-in fallback.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed templates/*
var templates embed.FS

// Sentinel errors for asset loading.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
)

// DefaultTemplateName is the built-in receipt template.
const DefaultTemplateName = "note"

// LoadTemplate loads an embedded HTML template by name.
// The name should not include the .html extension.
func LoadTemplate(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := templates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	return string(content), nil
}

// ValidateAssetName rejects names that could escape the embedded tree.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
