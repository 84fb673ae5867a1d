// Package pattern parses and compiles route pattern templates such as
// "/v{val}/{val2}/index.html" or "/v/{tail:.*}" into either a literal
// string or a regular expression with named capture groups.
package pattern

import (
	"regexp"
	"strings"
)

// Kind classifies a compiled Pattern.
type Kind int

const (
	Unset Kind = iota
	Static
	Dynamic
	External
)

// ElementKind distinguishes the two element forms a template decomposes into.
type ElementKind int

const (
	Str ElementKind = iota
	Var
)

// Element is one piece of the decomposed template, in declaration order.
type Element struct {
	Kind  ElementKind
	Value string // literal text for Str, capture name for Var
}

const defaultClass = "[^/]+"

// Pattern is an immutable, compiled route template.
type Pattern struct {
	Name     string
	Template string
	Kind     Kind
	Literal  string // set when Kind == Static
	Regex    *regexp.Regexp
	Names    []string // capture group names, in declaration order
	Elements []Element
}

// Parse compiles a template into a Pattern. A leading '/' is elided; the
// router prepends its own prefix. Parsing is a single left-to-right pass:
// outside a '{...}' segment, characters accumulate into both a literal
// buffer and an escaped regex buffer; '{' enters parameter mode, collecting
// the name until '}' or ':'; ':' switches to custom-pattern mode, skipping
// one leading space, collecting the pattern body until '}'. Parse returns an
// error if a '{' is never closed.
func Parse(name, template string) (*Pattern, error) {
	t := strings.TrimPrefix(template, "/")

	var (
		re       strings.Builder
		lit      strings.Builder
		elements []Element
		names    []string
		dynamic  bool
	)

	var pending strings.Builder
	flushStr := func() {
		if pending.Len() > 0 {
			elements = append(elements, Element{Kind: Str, Value: pending.String()})
			pending.Reset()
		}
	}

	i := 0
	for i < len(t) {
		c := t[i]
		if c != '{' {
			re.WriteString(regexp.QuoteMeta(string(c)))
			lit.WriteByte(c)
			pending.WriteByte(c)
			i++
			continue
		}

		flushStr()
		dynamic = true
		i++ // consume '{'
		start := i
		for i < len(t) && t[i] != '}' && t[i] != ':' {
			i++
		}
		if i >= len(t) {
			return nil, &ParseError{Template: template, Reason: "unmatched '{'"}
		}
		varName := t[start:i]

		body := defaultClass
		if t[i] == ':' {
			i++ // consume ':'
			if i < len(t) && t[i] == ' ' {
				i++ // discard one leading space
			}
			bodyStart := i
			for i < len(t) && t[i] != '}' {
				i++
			}
			if i >= len(t) {
				return nil, &ParseError{Template: template, Reason: "unmatched '{'"}
			}
			body = t[bodyStart:i]
		}
		if i >= len(t) || t[i] != '}' {
			return nil, &ParseError{Template: template, Reason: "unmatched '{'"}
		}
		i++ // consume '}'

		re.WriteString("(?P<")
		re.WriteString(varName)
		re.WriteString(">")
		re.WriteString(body)
		re.WriteString(")")

		elements = append(elements, Element{Kind: Var, Value: varName})
		names = append(names, varName)
	}
	flushStr()

	p := &Pattern{
		Name:     name,
		Template: template,
		Elements: elements,
		Names:    names,
	}

	if !dynamic {
		p.Kind = Static
		p.Literal = lit.String()
		return p, nil
	}

	compiled, err := regexp.Compile("^" + re.String() + "$")
	if err != nil {
		return nil, &ParseError{Template: template, Reason: err.Error()}
	}
	p.Kind = Dynamic
	p.Regex = compiled
	return p, nil
}

// ParseError is returned by Parse on a malformed template; construction is
// expected to be a caller error, not a runtime condition.
type ParseError struct {
	Template string
	Reason   string
}

func (e *ParseError) Error() string {
	return "pattern: cannot parse " + e.Template + ": " + e.Reason
}

// IsMatch reports whether path matches the pattern, without extracting params.
func (p *Pattern) IsMatch(path string) bool {
	switch p.Kind {
	case Static:
		return path == p.Literal
	case Dynamic:
		return p.Regex.MatchString(path)
	default:
		return false
	}
}

// MatchWithParams reports whether path matches, and if so writes each named
// capture's matched substring into params in group declaration order.
func (p *Pattern) MatchWithParams(path string, params map[string]string) bool {
	switch p.Kind {
	case Static:
		return path == p.Literal
	case Dynamic:
		m := p.Regex.FindStringSubmatch(path)
		if m == nil {
			return false
		}
		for i, name := range p.Regex.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}
			params[name] = m[i]
		}
		return true
	default:
		return false
	}
}

// ResourcePath generates a concrete path by substituting elements into the
// pattern's element list in order: Str elements are copied literally, each
// Var element consumes one element from the caller-supplied slice. Extra
// elements are ignored; running out early is the caller's error to detect
// via the returned ok flag.
func (p *Pattern) ResourcePath(elements ...string) (string, bool) {
	var b strings.Builder
	idx := 0
	for _, el := range p.Elements {
		switch el.Kind {
		case Str:
			b.WriteString(el.Value)
		case Var:
			if idx >= len(elements) {
				return "", false
			}
			b.WriteString(elements[idx])
			idx++
		}
	}
	return b.String(), true
}
