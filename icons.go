package noteprint

import "strings"

// CategoryIcon holds display metadata for a note category.
type CategoryIcon struct {
	Emoji string // Emoji fallback for plain-text surfaces
	Label string // Human-friendly badge label
	SVG   string // Inline SVG glyph used on the printed ticket
}

// defaultIcon is used for empty or unknown categories. Category resolution
// never fails a print attempt.
var defaultIcon = CategoryIcon{
	Emoji: "⭐",
	Label: "Nota",
	SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <polygon points="24,6 29,19 43,19 32,27 36,40 24,32 12,40 16,27 5,19 19,19"
    fill="none" stroke="#141414" stroke-width="3" stroke-linejoin="round"/>
</svg>`,
}

// categoryIcons maps normalized category names to their display metadata.
// Accented spellings alias the canonical entry.
var categoryIcons = map[string]CategoryIcon{
	"casa": {
		Emoji: "🏠",
		Label: "Casa",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <path d="M8 22 L24 8 L40 22" fill="none" stroke="#141414" stroke-width="3" stroke-linecap="round" stroke-linejoin="round"/>
  <path d="M14 22 V38 H34 V22" fill="none" stroke="#141414" stroke-width="3" stroke-linecap="round" stroke-linejoin="round"/>
  <rect x="20" y="28" width="8" height="10" fill="none" stroke="#141414" stroke-width="3" stroke-linejoin="round"/>
</svg>`,
	},
	"trabalho": {
		Emoji: "💼",
		Label: "Trabalho",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <rect x="8" y="16" width="32" height="22" rx="3" fill="none" stroke="#141414" stroke-width="3"/>
  <path d="M18 16 V12 C18 10.895 18.895 10 20 10 H28 C29.105 10 30 10.895 30 12 V16" fill="none" stroke="#141414" stroke-width="3"/>
  <path d="M8 24 H40" stroke="#141414" stroke-width="3"/>
</svg>`,
	},
	"estudos": {
		Emoji: "📚",
		Label: "Estudos",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <path d="M8 16 L24 8 L40 16 V36 L24 44 L8 36 V16" fill="none" stroke="#141414" stroke-width="3" stroke-linejoin="round"/>
  <path d="M24 8 V44" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
</svg>`,
	},
	"saude": {
		Emoji: "💊",
		Label: "Saúde",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <rect x="10" y="14" width="28" height="20" rx="10" fill="none" stroke="#141414" stroke-width="3"/>
  <path d="M19 24 H29" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
  <path d="M24 19 V29" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
</svg>`,
	},
	"lazer": {
		Emoji: "🎉",
		Label: "Lazer",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <path d="M12 40 L20 16 L32 28 L12 40" fill="none" stroke="#141414" stroke-width="3" stroke-linejoin="round"/>
  <path d="M26 12 C28 10 32 10 34 12" fill="none" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
  <circle cx="38" cy="18" r="2" fill="#141414"/>
  <circle cx="30" cy="8" r="2" fill="#141414"/>
</svg>`,
	},
	"compras": {
		Emoji: "🛒",
		Label: "Compras",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <path d="M8 12 H14 L18 32 H36 L40 18 H16" fill="none" stroke="#141414" stroke-width="3" stroke-linecap="round" stroke-linejoin="round"/>
  <circle cx="20" cy="38" r="3" fill="none" stroke="#141414" stroke-width="3"/>
  <circle cx="34" cy="38" r="3" fill="none" stroke="#141414" stroke-width="3"/>
</svg>`,
	},
	"familia": {
		Emoji: "👨‍👩‍👧‍👦",
		Label: "Família",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <circle cx="16" cy="14" r="5" fill="none" stroke="#141414" stroke-width="3"/>
  <circle cx="32" cy="14" r="5" fill="none" stroke="#141414" stroke-width="3"/>
  <path d="M8 40 V32 C8 28 11 25 15 25 H17 C21 25 24 28 24 32" fill="none" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
  <path d="M24 32 C24 28 27 25 31 25 H33 C37 25 40 28 40 32 V40" fill="none" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
</svg>`,
	},
	"financas": {
		Emoji: "💰",
		Label: "Finanças",
		SVG: `<svg viewBox="0 0 48 48" xmlns="http://www.w3.org/2000/svg" aria-hidden="true">
  <circle cx="24" cy="24" r="16" fill="none" stroke="#141414" stroke-width="3"/>
  <path d="M24 14 V34" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
  <path d="M30 18 C28 16 20 16 19 19 C18 22 22 23 25 24 C28 25 30 26 29 29 C28 32 20 32 18 30" fill="none" stroke="#141414" stroke-width="3" stroke-linecap="round"/>
</svg>`,
	},
}

// categoryAliases maps accented or alternate spellings to canonical names.
var categoryAliases = map[string]string{
	"lar":      "casa",
	"estudo":   "estudos",
	"estudar":  "estudos",
	"saúde":    "saude",
	"família":  "familia",
	"finanças": "financas",
}

// ResolveCategory returns display metadata for a category name.
// Lookup is case-insensitive and tolerant of surrounding whitespace.
// Unknown and empty categories resolve to the default star icon.
func ResolveCategory(category string) CategoryIcon {
	normalized := strings.ToLower(strings.TrimSpace(category))
	if normalized == "" {
		return defaultIcon
	}
	if canonical, ok := categoryAliases[normalized]; ok {
		normalized = canonical
	}
	if icon, ok := categoryIcons[normalized]; ok {
		return icon
	}
	return defaultIcon
}

// Categories returns the canonical category names in no particular order.
func Categories() []string {
	names := make([]string, 0, len(categoryIcons))
	for name := range categoryIcons {
		names = append(names, name)
	}
	return names
}
