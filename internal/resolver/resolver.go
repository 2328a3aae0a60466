// Package resolver substitutes references in configuration strings.
// Resolution runs in two phases: ${a.b.c} references are looked up in
// the raw configuration document and resolved recursively, then $NAME
// references are swapped for the dialect-specific token of the builtin
// variable. Unknown references pass through unchanged so that literal
// installer syntax survives.
package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nsipack/nsipack/internal/variables"
)

// MaxDepth bounds recursive reference resolution.
const MaxDepth = 10

// escapedDollar protects $$ escapes from the $NAME scan. The NUL bytes
// cannot appear in YAML scalar content, so the marker never collides.
const escapedDollar = "\x00ESCAPED_DOLLAR\x00"

var (
	configRefPattern  = regexp.MustCompile(`\$\{([^}]+)\}`)
	builtinRefPattern = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// CycleError reports a circular reference chain. The chain lists the
// reference paths in resolution order, ending with the repeated path.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "circular reference detected: " + strings.Join(e.Chain, " → ")
}

// DepthExceededError reports resolution nesting beyond MaxDepth.
type DepthExceededError struct {
	Depth int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("variable resolution exceeded max depth (%d); possible circular reference or overly deep nesting", MaxDepth)
}

// UnknownReferenceError reports unresolvable references in strict mode.
// Known lists the builtin variable names in sorted order so the message
// shows what would have resolved.
type UnknownReferenceError struct {
	References []string
	Known      []string
}

func (e *UnknownReferenceError) Error() string {
	msg := "unknown variable references: " + strings.Join(e.References, ", ")
	if len(e.Known) > 0 {
		msg += ". Available built-in variables: " + strings.Join(e.Known, ", ")
	}
	return msg
}

// Source is the raw-document lookup the resolver reads ${...} references
// from. *config.Config satisfies it.
type Source interface {
	Lookup(path string) (any, bool)
}

// Resolver substitutes configuration and builtin variable references for
// one target dialect.
type Resolver struct {
	source   Source
	registry *variables.Registry
	dialect  string
	custom   map[string]bool

	stack []string
}

// New creates a resolver for the given dialect. Custom variable names
// from the document's "variables" section are considered known during
// validation; their values are reached through ${variables.NAME}.
func New(source Source, dialect string) *Resolver {
	r := &Resolver{
		source:   source,
		registry: variables.NewRegistry(),
		dialect:  dialect,
		custom:   make(map[string]bool),
	}
	if raw, ok := source.Lookup("variables"); ok {
		if m, ok := raw.(map[string]any); ok {
			for name := range m {
				r.custom[name] = true
			}
		}
	}
	return r
}

// Resolve substitutes all references in text. Resolved output contains
// no further resolvable references, so Resolve is idempotent.
func (r *Resolver) Resolve(text string) (string, error) {
	return r.resolve(text, 0)
}

func (r *Resolver) resolve(text string, depth int) (string, error) {
	if text == "" {
		return text, nil
	}
	if depth > MaxDepth {
		return "", &DepthExceededError{Depth: depth}
	}

	text, err := r.resolveConfigRefs(text, depth)
	if err != nil {
		return "", err
	}
	return r.resolveBuiltins(text)
}

// resolveConfigRefs replaces ${path} references by raw-document lookup,
// recursing into substituted values.
func (r *Resolver) resolveConfigRefs(text string, depth int) (string, error) {
	var firstErr error
	out := configRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		if firstErr != nil {
			return match
		}
		path := match[2 : len(match)-1]

		for _, active := range r.stack {
			if active == path {
				chain := append(append([]string{}, r.stack...), path)
				firstErr = &CycleError{Chain: chain}
				return match
			}
		}

		value, ok := r.source.Lookup(path)
		if !ok || value == nil {
			return match
		}

		r.stack = append(r.stack, path)
		resolved, err := r.resolve(fmt.Sprintf("%v", value), depth+1)
		r.stack = r.stack[:len(r.stack)-1]
		if err != nil {
			firstErr = err
			return match
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// resolveBuiltins replaces $NAME references with dialect tokens. $$ is an
// escape for a literal dollar and is protected from the scan.
func (r *Resolver) resolveBuiltins(text string) (string, error) {
	text = strings.ReplaceAll(text, "$$", escapedDollar)

	var firstErr error
	text = builtinRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := match[1:]
		token, known, err := r.registry.Token(name, r.dialect)
		if err != nil {
			firstErr = err
			return match
		}
		if !known {
			return match
		}
		return token
	})
	if firstErr != nil {
		return "", firstErr
	}

	return strings.ReplaceAll(text, escapedDollar, "$"), nil
}

// ResolvePath resolves references and normalizes path separators to
// backslashes for the generated script.
func (r *Resolver) ResolvePath(text string) (string, error) {
	resolved, err := r.Resolve(text)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(resolved, "/", `\`), nil
}

// ValidateReferences collects the references in text that resolve to
// nothing. In strict mode an UnknownReferenceError is returned when any
// are found.
func (r *Resolver) ValidateReferences(text string, strict bool) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	var unknown []string
	for _, m := range configRefPattern.FindAllStringSubmatch(text, -1) {
		if value, ok := r.source.Lookup(m[1]); !ok || value == nil {
			unknown = append(unknown, "${"+m[1]+"}")
		}
	}
	for _, m := range builtinRefPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if !r.registry.Has(name) && !r.custom[name] {
			unknown = append(unknown, "$"+name)
		}
	}

	if strict && len(unknown) > 0 {
		return unknown, &UnknownReferenceError{References: unknown, Known: r.registry.Names()}
	}
	return unknown, nil
}
