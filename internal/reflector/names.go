package reflector

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var initialisms = map[string]bool{
	"API": true, "CSS": true, "DNS": true, "HTML": true, "HTTP": true, "HTTPS": true,
	"ID": true, "IO": true, "IP": true, "JSON": true, "SQL": true, "TCP": true,
	"TLS": true, "UI": true, "URI": true, "URL": true, "UTF8": true, "UUID": true,
	"XML": true,
}

// Export turns a document member name ("ok_button", "okButton",
// "ok-button") into the exported Go identifier "OkButton".
func Export(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	var b strings.Builder
	for _, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}
	return b.String()
}

// memberNames lists the Go identifiers a member name may map to, most
// literal first: "imageUrl" gives ImageUrl and ImageURL.
func memberNames(name string) []string {
	exported := Export(name)
	if exported == "" {
		return nil
	}
	out := []string{exported}
	if alt := withInitialisms(exported); alt != exported {
		out = append(out, alt)
	}
	return out
}

func withInitialisms(ident string) string {
	words := splitWords(ident)
	for i, w := range words {
		if up := strings.ToUpper(w); initialisms[up] {
			words[i] = up
		}
	}
	return strings.Join(words, "")
}

// splitWords splits a camel-case identifier at each upper-case letter that
// follows a lower-case letter or digit.
func splitWords(ident string) []string {
	var words []string
	start := 0
	prevLower := false
	for i, r := range ident {
		if unicode.IsUpper(r) && prevLower {
			words = append(words, ident[start:i])
			start = i
		}
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return append(words, ident[start:])
}

func accessorNames(name string) []string {
	var out []string
	for _, n := range memberNames(name) {
		out = append(out, n, "Get"+n, "Is"+n)
	}
	return out
}

func setterNames(name string) []string {
	var out []string
	for _, n := range memberNames(name) {
		out = append(out, "Set"+n)
	}
	return out
}
