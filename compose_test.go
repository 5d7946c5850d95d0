package noteprint

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const testTemplate = `<!DOCTYPE html>
<html><body style="width: {{ width }}px">
<div class="note">
  <span class="icon">{{ category_icon_svg }}</span>
  <span class="id">{{ ticket_id }}</span>
  <p class="text">{{ text }}</p>
  <span class="date">{{ date }}</span>
</div>
</body></html>`

func TestComposeSubstitutesAllPlaceholders(t *testing.T) {
	c := newCompositor()

	note := Note{
		Text:     "buy milk",
		Category: "compras",
		TicketID: "42",
		Date:     "07 Mar 2026",
	}

	doc, err := c.Compose(context.Background(), testTemplate, note, 384)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	for _, want := range []string{
		"buy milk",
		"#42",
		"07 Mar 2026",
		"width: 384px",
		"<svg", // compras icon
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("composed document missing %q", want)
		}
	}
	if strings.Contains(doc, "{{") {
		t.Errorf("composed document still contains placeholder syntax:\n%s", doc)
	}
}

func TestComposeEscapesUserText(t *testing.T) {
	c := newCompositor()

	tests := []struct {
		name string
		text string
		want string
		deny string
	}{
		{
			name: "html tags are escaped",
			text: `<script>alert("x")</script>`,
			want: "&lt;script&gt;",
			deny: "<script>",
		},
		{
			name: "ampersand is escaped",
			text: "fish & chips",
			want: "fish &amp; chips",
		},
		{
			name: "newlines become line breaks",
			text: "line one\nline two",
			want: "line one<br />line two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := c.Compose(context.Background(), testTemplate, Note{Text: tt.text}, 384)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if !strings.Contains(doc, tt.want) {
				t.Errorf("composed document missing %q", tt.want)
			}
			if tt.deny != "" && strings.Contains(doc, tt.deny) {
				t.Errorf("composed document contains unescaped %q", tt.deny)
			}
		})
	}
}

func TestComposeAcceptsBracesInUserFields(t *testing.T) {
	c := newCompositor()

	tests := []struct {
		name string
		note Note
		want string
	}{
		{
			name: "braces in text",
			note: Note{Text: "use {{ curly }} braces"},
			want: "use {{ curly }} braces",
		},
		{
			name: "placeholder-shaped text",
			note: Note{Text: "{{ text }}"},
			want: "{{ text }}",
		},
		{
			name: "braces in date",
			note: Note{Text: "x", Date: "{{ hoje }}"},
			want: "{{ hoje }}",
		},
		{
			name: "braces in ticket id",
			note: Note{Text: "x", TicketID: "{{ 9 }}"},
			want: "#{{ 9 }}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := c.Compose(context.Background(), testTemplate, tt.note, 384)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if !strings.Contains(doc, tt.want) {
				t.Errorf("composed document missing literal %q:\n%s", tt.want, doc)
			}
		})
	}
}

func TestComposeMarkupMode(t *testing.T) {
	c := newCompositor()

	note := Note{Text: "**urgent** task", Markup: true}
	doc, err := c.Compose(context.Background(), testTemplate, note, 384)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(doc, "<strong>urgent</strong>") {
		t.Errorf("markup mode did not convert bold text:\n%s", doc)
	}
}

func TestComposeMarkupStrikethrough(t *testing.T) {
	c := newCompositor()

	note := Note{Text: "~~done~~", Markup: true}
	doc, err := c.Compose(context.Background(), testTemplate, note, 384)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(doc, "<del>done</del>") {
		t.Errorf("GFM strikethrough not rendered:\n%s", doc)
	}
}

func TestComposeErrors(t *testing.T) {
	c := newCompositor()

	tests := []struct {
		name     string
		template string
		wantErr  error
	}{
		{
			name:     "empty template",
			template: "",
			wantErr:  ErrEmptyTemplate,
		},
		{
			name:     "whitespace template",
			template: "   \n\t",
			wantErr:  ErrEmptyTemplate,
		},
		{
			name:     "unknown placeholder",
			template: `<div class="note">{{ text }} {{ bogus_field }}</div>`,
			wantErr:  ErrUnresolvedPlaceholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compose(context.Background(), tt.template, Note{Text: "x"}, 384)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compose() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := newCompositor()
	note := Note{Text: "same note", Category: "casa", TicketID: "7", Date: "01 Jan 2026"}

	first, err := c.Compose(context.Background(), testTemplate, note, 384)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	second, err := c.Compose(context.Background(), testTemplate, note, 384)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if first != second {
		t.Error("identical notes produced different documents")
	}
}

func TestComposeMarkupCancelledContext(t *testing.T) {
	c := newCompositor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compose(ctx, testTemplate, Note{Text: "x", Markup: true}, 384)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Compose() error = %v, want context.Canceled", err)
	}
}

func TestFormatTicketID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42", "#42"},
		{"#42", "#42"},
		{"  7  ", "#7"},
		{"", "#1"},
		{"abc", "#abc"},
	}

	for _, tt := range tests {
		if got := formatTicketID(tt.in); got != tt.want {
			t.Errorf("formatTicketID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
