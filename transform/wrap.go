package transform

import "strings"

// Wrap encloses markup in a div carrying classes. Empty class names are
// dropped; when none remain markup is returned unchanged.
func Wrap(markup string, classes []string) string {
	joined := joinClasses(classes)
	if joined == "" {
		return markup
	}
	return `<div class="` + joined + `">` + markup + `</div>`
}

func joinClasses(classes []string) string {
	kept := make([]string, 0, len(classes))
	for _, c := range classes {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}

// ParseID strips the query suffix, starting at the first '?', from a module
// identifier.
func ParseID(id string) string {
	path, _, _ := strings.Cut(id, "?")
	return path
}
