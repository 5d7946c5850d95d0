package noteprint

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// Template placeholders understood by the compositor. The variants for the
// icon keep compatibility with templates written for the legacy renderer.
const (
	placeholderIconSVG  = "{{ category_icon_svg }}"
	placeholderIconSafe = "{{ category_icon|safe }}"
	placeholderIcon     = "{{ category_icon }}"
	placeholderTicketID = "{{ ticket_id }}"
	placeholderText     = "{{ text }}"
	placeholderDate     = "{{ date }}"
	placeholderWidth    = "{{ width }}"
)

// placeholderPattern matches `{{ ... }}` placeholder syntax in a template.
var placeholderPattern = regexp.MustCompile(`\{\{\s*[^}]*\}\}`)

// knownPlaceholders is the set of placeholders the compositor substitutes.
// Any other `{{ ... }}` occurrence in a template is an authoring error.
var knownPlaceholders = map[string]struct{}{
	placeholderIconSVG:  {},
	placeholderIconSafe: {},
	placeholderIcon:     {},
	placeholderTicketID: {},
	placeholderText:     {},
	placeholderDate:     {},
	placeholderWidth:    {},
}

// compositor merges note fields into a self-contained HTML document.
// It performs no I/O; malformed templates fail before any rendering cost.
type compositor struct {
	markup markupConverter
}

// newCompositor creates a compositor with the goldmark markup converter.
func newCompositor() *compositor {
	return &compositor{markup: newGoldmarkConverter()}
}

// Compose substitutes the note fields into templateHTML and returns the final
// document. All user-supplied text is HTML-escaped; literal newlines become
// <br /> so multi-line notes keep their shape on paper.
func (c *compositor) Compose(ctx context.Context, templateHTML string, note Note, widthPx int) (string, error) {
	if strings.TrimSpace(templateHTML) == "" {
		return "", ErrEmptyTemplate
	}

	// The template is checked before any user-controlled value is injected:
	// braces inside note text, date, or ticket id are content, not syntax.
	for _, m := range placeholderPattern.FindAllString(templateHTML, -1) {
		if _, ok := knownPlaceholders[m]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, m)
		}
	}

	body, err := c.noteBody(ctx, note)
	if err != nil {
		return "", err
	}

	icon := ResolveCategory(note.Category)
	ticketID := formatTicketID(note.TicketID)

	doc := strings.NewReplacer(
		placeholderIconSVG, icon.SVG,
		placeholderIconSafe, icon.SVG,
		placeholderIcon, icon.SVG,
		placeholderTicketID, html.EscapeString(ticketID),
		placeholderText, body,
		placeholderDate, html.EscapeString(note.Date),
		placeholderWidth, strconv.Itoa(widthPx),
	).Replace(templateHTML)

	return doc, nil
}

// noteBody produces the HTML fragment for the note text.
// Plain mode escapes and converts newlines; markup mode runs goldmark.
func (c *compositor) noteBody(ctx context.Context, note Note) (string, error) {
	if !note.Markup {
		escaped := html.EscapeString(note.Text)
		return strings.ReplaceAll(escaped, "\n", "<br />"), nil
	}
	return c.markup.ToHTML(ctx, note.Text)
}

// formatTicketID normalizes the ticket identifier to a "#N" badge.
func formatTicketID(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		trimmed = "1"
	}
	return "#" + strings.TrimPrefix(trimmed, "#")
}

// markupConverter abstracts note-text-to-HTML conversion for markup mode.
type markupConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// goldmarkConverter converts Markdown note text to an HTML fragment.
type goldmarkConverter struct {
	md goldmark.Markdown
}

// newGoldmarkConverter creates a goldmarkConverter tuned for receipt text:
// GFM for strikethrough and task lists, hard wraps so line breaks survive.
func newGoldmarkConverter() *goldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithRendererOptions(
			ghtml.WithHardWraps(),
			ghtml.WithXHTML(),
		),
	)
	return &goldmarkConverter{md: md}
}

// ToHTML converts note text to an HTML fragment for template injection.
// Supports context cancellation via goroutine + select pattern since
// goldmark doesn't natively support context.
func (c *goldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkupConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
