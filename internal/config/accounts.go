package config

import (
	"fmt"
	"strings"
)

const accountsHeader = "[accounts]"

// UpsertAccountConfig sets <name> = "<url>" inside the [accounts] section,
// creating the section when missing. It reports whether the text changed.
func UpsertAccountConfig(existing, name, feedURL string) (string, bool) {
	entry := fmt.Sprintf("%s = %q", name, feedURL)
	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines)+4)
	inSection, seenHeader, found, changed := false, false, false, false

	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if !seenHeader {
			// A generated config carries an empty inline "accounts = {}".
			if key, ok := parseTOMLKey(line); ok && key == "accounts" {
				changed = true
				continue
			}
		}
		if isSectionHeader(trim) {
			seenHeader = true
			if inSection && !found {
				out = appendBeforeBlank(out, entry)
				found, changed = true, true
			}
			inSection = trim == accountsHeader
			out = append(out, line)
			continue
		}
		if inSection {
			if key, ok := parseTOMLKey(line); ok && key == name {
				found = true
				if trim != entry {
					changed = true
				}
				out = append(out, entry)
				continue
			}
		}
		out = append(out, line)
	}
	if inSection && !found {
		out = appendBeforeBlank(out, entry)
		found, changed = true, true
	}

	if !found {
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, accountsHeader, entry)
		changed = true
	}
	return strings.Join(out, "\n"), changed
}

// DeleteAccountConfig removes <name> from the [accounts] section if present.
func DeleteAccountConfig(existing, name string) (string, bool) {
	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines))
	inSection, removed := false, false
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if isSectionHeader(trim) {
			inSection = trim == accountsHeader
		} else if inSection {
			if key, ok := parseTOMLKey(line); ok && key == name {
				removed = true
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), removed
}

// appendBeforeBlank inserts entry ahead of the trailing blank lines of a section.
func appendBeforeBlank(out []string, entry string) []string {
	n := len(out)
	for n > 0 && strings.TrimSpace(out[n-1]) == "" {
		n--
	}
	tail := append([]string(nil), out[n:]...)
	return append(append(out[:n], entry), tail...)
}

func isSectionHeader(trim string) bool {
	if trim == "" || strings.HasPrefix(trim, "#") || strings.HasPrefix(trim, ";") {
		return false
	}
	return strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]")
}
