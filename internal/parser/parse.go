// Package parser implements the command registry and textual command
// parser (C9): parsing "/<namespace>:<name> [flags] [positional]" into a
// Command, and discovering CommandMetadata from a directory of
// frontmatter-carrying files.
package parser

import (
	"fmt"
	"strings"

	"github.com/harrison/scengine/internal/models"
)

// ParseError is a structured parse failure, distinct from a Go error
// string so callers can map it to the invocation-error exit code (3).
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid command %q: %s", e.Input, e.Reason)
}

// Parse converts raw textual input of the form
// "/<namespace>:<name> [--flag|--key=value|--key value|-k|positional]*"
// into a Command. It does not validate flags against any FlagsSpec;
// that happens separately once the command's metadata is resolved.
func Parse(raw string) (models.Command, error) {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "/") {
		return models.Command{}, &ParseError{Input: raw, Reason: "command must start with '/'"}
	}
	text = text[1:]

	head, rest, _ := strings.Cut(text, " ")
	namespace, name, ok := strings.Cut(head, ":")
	if !ok || namespace == "" || name == "" {
		return models.Command{}, &ParseError{Input: raw, Reason: "expected '<namespace>:<name>'"}
	}

	tokens, err := tokenize(rest)
	if err != nil {
		return models.Command{}, &ParseError{Input: raw, Reason: err.Error()}
	}

	flags := make(map[string]string)
	var args []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case strings.HasPrefix(tok, "--"):
			key := tok[2:]
			if k, v, ok := strings.Cut(key, "="); ok {
				flags[k] = v
				continue
			}
			if i+1 < len(tokens) && !looksLikeFlag(tokens[i+1]) {
				flags[key] = tokens[i+1]
				i++
				continue
			}
			flags[key] = ""
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			flags[tok[1:]] = ""
		default:
			args = append(args, tok)
		}
	}

	return models.Command{
		Namespace: namespace,
		Name:      name,
		Args:      args,
		Flags:     flags,
		RawText:   raw,
	}, nil
}

func looksLikeFlag(tok string) bool {
	return strings.HasPrefix(tok, "-")
}

// tokenize splits the remainder of the command line on whitespace,
// honoring single and double quoted spans so "--key=value with spaces"
// style arguments survive intact.
func tokenize(s string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inQuote := rune(0)
	hasToken := false

	flush := func() {
		if hasToken {
			tokens = append(tokens, current.String())
			current.Reset()
			hasToken = false
		}
	}

	for _, r := range s {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			inQuote = r
			hasToken = true
		case r == ' ' || r == '\t':
			flush()
		default:
			current.WriteRune(r)
			hasToken = true
		}
	}
	if inQuote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	flush()
	return tokens, nil
}

// Format renders a Command back to its canonical textual form.
// Positional arguments are written before the flags, so a value-less
// flag is never followed by a token that Parse would read as its value.
// Flag order is not guaranteed across round trips; callers relying on
// exact-text equality should compare parsed Commands, not raw strings.
func Format(c models.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/%s:%s", c.Namespace, c.Name)
	for _, a := range c.Args {
		fmt.Fprintf(&b, " %s", a)
	}
	for k, v := range c.Flags {
		if v == "" {
			fmt.Fprintf(&b, " --%s", k)
		} else {
			fmt.Fprintf(&b, " --%s=%s", k, v)
		}
	}
	return b.String()
}
