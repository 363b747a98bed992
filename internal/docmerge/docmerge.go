// Package docmerge substitutes merge-field placeholders in a stored letter
// template with per-recipient values. Templates are UTF-8 text or markup with
// mail-merge style «Field» markers.
package docmerge

import (
	"bytes"
	"regexp"
	"sort"
)

// Placeholders are guillemet-delimited field names, e.g. «Navn».
var fieldPattern = regexp.MustCompile(`«([^«»]+)»`)

// Merge replaces every «Field» placeholder that has an entry in fields with
// its value. Placeholders without a matching key are left in place, and keys
// without a matching placeholder are ignored; neither is an error, so one
// field map layout can serve several template revisions.
func Merge(template []byte, fields map[string]string) []byte {
	if len(template) == 0 || len(fields) == 0 {
		return append([]byte(nil), template...)
	}

	return fieldPattern.ReplaceAllFunc(template, func(match []byte) []byte {
		name := string(match[len("«") : len(match)-len("»")])
		if value, ok := fields[name]; ok {
			return []byte(value)
		}
		return match
	})
}

// Fields returns the sorted, de-duplicated placeholder names declared in a
// template. Stored alongside the template so ingestion can be checked against
// the fields a letter actually uses.
func Fields(template []byte) []string {
	matches := fieldPattern.FindAllSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		name := string(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContainsField reports whether the template declares the given field.
func ContainsField(template []byte, name string) bool {
	return bytes.Contains(template, []byte("«"+name+"»"))
}
