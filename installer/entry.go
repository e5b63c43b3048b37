// Package installer integrates executables and AppImages into a Linux
// desktop: it copies the binary and icon into standard locations and writes
// a freedesktop desktop-entry file so launchers pick the application up.
package installer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// DesktopEntry is the descriptor record written to the applications
// directory. Field order in the serialized form follows the order fields are
// declared here.
type DesktopEntry struct {
	Name       string
	Exec       string
	Icon       string
	Comment    string
	Categories []string
	Keywords   []string
	Terminal   bool
}

// Encode serializes the entry in desktop-entry syntax. List values get the
// trailing semicolon the freedesktop spec asks for; empty optional fields are
// omitted entirely.
func (e *DesktopEntry) Encode() string {
	var sb strings.Builder
	sb.WriteString("[Desktop Entry]\n")
	sb.WriteString("Type=Application\n")
	fmt.Fprintf(&sb, "Name=%s\n", escapeValue(e.Name))
	fmt.Fprintf(&sb, "Exec=%s\n", escapeValue(e.Exec))
	if e.Icon != "" {
		fmt.Fprintf(&sb, "Icon=%s\n", escapeValue(e.Icon))
	}
	if e.Comment != "" {
		fmt.Fprintf(&sb, "Comment=%s\n", escapeValue(e.Comment))
	}
	if len(e.Categories) > 0 {
		fmt.Fprintf(&sb, "Categories=%s\n", encodeList(e.Categories))
	}
	if len(e.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords=%s\n", encodeList(e.Keywords))
	}
	fmt.Fprintf(&sb, "Terminal=%t\n", e.Terminal)
	return sb.String()
}

// WriteFile writes the serialized entry to path, replacing any existing file.
func (e *DesktopEntry) WriteFile(path string) error {
	return os.WriteFile(path, []byte(e.Encode()), 0644)
}

// ParseEntry parses desktop-entry text. Only keys in the [Desktop Entry]
// group are considered; localized keys (Name[xx]=...) and comments are
// skipped. Unknown keys are ignored rather than rejected, since system
// entries carry many keys this tool does not model.
func ParseEntry(content string) (*DesktopEntry, error) {
	entry := &DesktopEntry{}
	inMainGroup := false
	seenMainGroup := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inMainGroup = line == "[Desktop Entry]"
			if inMainGroup {
				seenMainGroup = true
			}
			continue
		}
		if !inMainGroup {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Skip localized variants like Name[de].
		if strings.Contains(key, "[") {
			continue
		}

		// List values split on unescaped semicolons, so they are
		// unescaped per-item in splitList rather than here.
		switch key {
		case "Name":
			entry.Name = unescapeValue(value)
		case "Exec":
			entry.Exec = unescapeValue(value)
		case "Icon":
			entry.Icon = unescapeValue(value)
		case "Comment":
			entry.Comment = unescapeValue(value)
		case "Categories":
			entry.Categories = splitList(value)
		case "Keywords":
			entry.Keywords = splitList(value)
		case "Terminal":
			entry.Terminal = value == "true"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !seenMainGroup {
		return nil, fmt.Errorf("no [Desktop Entry] group found")
	}
	return entry, nil
}

// ParseEntryFile reads and parses a .desktop file.
func ParseEntryFile(path string) (*DesktopEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseEntry(string(data))
}

// splitList splits a semicolon-separated desktop-entry list. A separator
// escaped as \; belongs to the item; the empty element produced by the
// trailing semicolon is dropped.
func splitList(value string) []string {
	var items []string
	var cur strings.Builder
	flush := func() {
		item := strings.TrimSpace(cur.String())
		cur.Reset()
		if item != "" {
			items = append(items, unescapeValue(item))
		}
	}

	escaped := false
	for _, r := range value {
		switch {
		case escaped:
			if r == ';' {
				cur.WriteRune(';')
			} else {
				cur.WriteRune('\\')
				cur.WriteRune(r)
			}
			escaped = false
		case r == '\\':
			escaped = true
		case r == ';':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	flush()
	return items
}

// encodeList serializes a desktop-entry list value, escaping semicolons
// inside items and appending the trailing separator.
func encodeList(items []string) string {
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = strings.ReplaceAll(escapeValue(item), ";", `\;`)
	}
	return strings.Join(escaped, ";") + ";"
}

// escapeValue escapes control characters that have meaning in desktop-entry
// values.
func escapeValue(value string) string {
	replacer := strings.NewReplacer(
		"\\", `\\`,
		"\n", `\n`,
		"\t", `\t`,
		"\r", `\r`,
	)
	return replacer.Replace(value)
}

func unescapeValue(value string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n",
		`\t`, "\t",
		`\r`, "\r",
		`\\`, "\\",
	)
	return replacer.Replace(value)
}

// Slug derives the file-name stem for install artifacts from a display name:
// lowercase, spaces collapsed to dashes, anything outside [a-z0-9._-]
// dropped. Falls back to "app" when nothing survives.
func Slug(name string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_':
			sb.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-':
			if !lastDash && sb.Len() > 0 {
				sb.WriteRune('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "app"
	}
	return slug
}
