package lang

import (
	"strings"
	"unicode/utf8"

	"github.com/codemap-dev/codemap/internal/store"
)

// VisibilityInput carries what a visibility rule needs to classify one
// definition (§4.B "Visibility rule").
type VisibilityInput struct {
	Name           string
	Modifiers      []string // lower-cased leading keyword tokens found on the definition
	ExportedParent bool     // nearest statement ancestor is an export construct (JS/TS)
}

// VisibilityFunc derives a symbol's visibility once per defined node.
type VisibilityFunc func(VisibilityInput) store.Visibility

// ExplicitKeyword implements the "explicit-keyword languages" family: scan
// leading modifiers for public/private/protected/pub, falling back to def
// when none is present.
func ExplicitKeyword(def store.Visibility) VisibilityFunc {
	return func(in VisibilityInput) store.Visibility {
		for _, m := range in.Modifiers {
			switch m {
			case "public", "pub", "export":
				return store.VisibilityPublic
			case "private":
				return store.VisibilityPrivate
			case "protected":
				return store.VisibilityProtected
			}
		}
		if in.ExportedParent {
			return store.VisibilityPublic
		}
		return def
	}
}

// CapitalizationBased implements the capitalization-based family (Go):
// upper-case first letter is public, lower-case is private.
func CapitalizationBased() VisibilityFunc {
	return func(in VisibilityInput) store.Visibility {
		r, size := utf8.DecodeRuneInString(in.Name)
		if size == 0 || r == utf8.RuneError {
			return store.VisibilityUnknown
		}
		switch {
		case 'A' <= r && r <= 'Z':
			return store.VisibilityPublic
		case 'a' <= r && r <= 'z':
			return store.VisibilityPrivate
		default:
			return store.VisibilityUnknown
		}
	}
}

// ConventionOnly implements the convention-only family (Python, Ruby):
// a leading underscore marks private, everything else is public.
func ConventionOnly() VisibilityFunc {
	return func(in VisibilityInput) store.Visibility {
		if strings.HasPrefix(in.Name, "_") {
			return store.VisibilityPrivate
		}
		return store.VisibilityPublic
	}
}

// ModuleScopeKeyword implements the module-scope-keyword family (C): a
// `static` modifier narrows the symbol to file scope (private), its
// absence leaves it public (externally linkable).
func ModuleScopeKeyword() VisibilityFunc {
	return func(in VisibilityInput) store.Visibility {
		for _, m := range in.Modifiers {
			if m == "static" {
				return store.VisibilityPrivate
			}
		}
		return store.VisibilityPublic
	}
}
