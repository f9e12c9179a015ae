package materialize

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Bindings maps placeholder names to literal secret values. Bindings live
// only in memory and in the rendered artifact — never in the configuration
// document itself.
type Bindings map[string]string

// LoadBindings reads a NAME=value file, one binding per line. Blank lines
// and lines starting with '#' are ignored. The value is everything after the
// first '=', taken literally. A line without '=' is a format error: secrets
// are never silently dropped.
func LoadBindings(path string) (Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("materialize: read bindings %s: %w", path, err)
	}

	b := Bindings{}
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("materialize: bindings %s line %d: missing '='", path, i+1)
		}
		b[strings.TrimSpace(name)] = value
	}
	return b, nil
}

// placeholderPattern matches ${NAME} where NAME is a shell-style identifier.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitute replaces every ${NAME} placeholder in text whose name is bound
// in b. Unbound placeholders are left verbatim: whether a value is truly
// required is the daemon's call, not ours.
func Substitute(text string, b Bindings) string {
	if len(b) == 0 {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := b[name]; ok {
			return v
		}
		return m
	})
}
