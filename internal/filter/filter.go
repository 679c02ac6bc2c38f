// Package filter compiles the log-filter DSL (spec §4.6) into an
// ordered list of Attribute values using a participle grammar — the Go
// analogue of the parser-combinator style the corpus's other language
// tooling uses for this kind of small line-oriented language.
package filter

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Kind enumerates the Attribute sum type's variants.
type Kind int

const (
	Pod Kind = iota
	ExcludePod
	Container
	ExcludeContainer
	IncludeLog
	ExcludeLog
	LabelSelector
	FieldSelector
	Resource
	Jq
	JMESPath
)

// Attribute is one parsed DSL term. For Resource, Name holds the
// resource name and Value holds the kind (e.g. "deployment"). For every
// other variant, Value holds the regex/expr/selector text.
type Attribute struct {
	Kind  Kind
	Value string
	Name  string
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Ident", Pattern: `[A-Za-z0-9_.\-]+`},
	{Name: "Punct", Pattern: `[:/!]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type rawValue string

// Capture strips surrounding quotes and resolves backslash escapes: a
// quoted \" or \\ unescapes to the literal character, and any other
// \x passes through unchanged including the backslash, per spec §4.6.
func (r *rawValue) Capture(values []string) error {
	s := values[0]
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		quote := s[0]
		inner := s[1 : len(s)-1]
		var b strings.Builder
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' && i+1 < len(inner) {
				next := inner[i+1]
				if next == quote || next == '\\' {
					b.WriteByte(next)
					i++
					continue
				}
				b.WriteByte('\\')
				continue
			}
			b.WriteByte(inner[i])
		}
		*r = rawValue(b.String())
		return nil
	}
	*r = rawValue(s)
	return nil
}

type grammarQuery struct {
	Attributes []*grammarAttribute `@@+`
}

type grammarAttribute struct {
	Resource *grammarResource `( @@`
	KeyValue *grammarKeyValue `| @@ )`
}

type grammarResource struct {
	Kind string `@Ident "/"`
	Name string `@Ident`
}

type grammarKeyValue struct {
	Negate bool     `@"!"?`
	Key    string   `@Ident ":"`
	Value  rawValue `(@String | @Ident)`
}

var parser = participle.MustBuild[grammarQuery](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

var podKeys = map[string]bool{"p": true, "po": true, "pod": true, "pods": true}
var containerKeys = map[string]bool{"c": true, "co": true, "container": true, "containers": true}
var logKeys = map[string]bool{"l": true, "lo": true, "log": true, "logs": true}
var labelKeys = map[string]bool{"labels": true, "label": true, "ls": true}
var fieldKeys = map[string]bool{"fields": true, "field": true, "fs": true}
var jqKeys = map[string]bool{"jq": true}
var jmesKeys = map[string]bool{"jmespath": true, "jmes": true, "jm": true}

// Parse compiles query into an ordered Attribute list. Parsing is
// all-consuming: trailing junk or a wholly blank input is an error.
func Parse(query string) ([]Attribute, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("filter: empty query")
	}
	ast, err := parser.ParseString("", query)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	out := make([]Attribute, 0, len(ast.Attributes))
	for _, a := range ast.Attributes {
		attr, err := resolve(a)
		if err != nil {
			return nil, err
		}
		out = append(out, attr)
	}
	return out, nil
}

func resolve(a *grammarAttribute) (Attribute, error) {
	if a.Resource != nil {
		return Attribute{Kind: Resource, Value: a.Resource.Kind, Name: a.Resource.Name}, nil
	}
	kv := a.KeyValue
	key := strings.ToLower(kv.Key)
	value := string(kv.Value)
	switch {
	case podKeys[key]:
		if kv.Negate {
			return Attribute{Kind: ExcludePod, Value: value}, nil
		}
		return Attribute{Kind: Pod, Value: value}, nil
	case containerKeys[key]:
		if kv.Negate {
			return Attribute{Kind: ExcludeContainer, Value: value}, nil
		}
		return Attribute{Kind: Container, Value: value}, nil
	case logKeys[key]:
		if kv.Negate {
			return Attribute{Kind: ExcludeLog, Value: value}, nil
		}
		return Attribute{Kind: IncludeLog, Value: value}, nil
	case labelKeys[key]:
		return Attribute{Kind: LabelSelector, Value: value}, nil
	case fieldKeys[key]:
		return Attribute{Kind: FieldSelector, Value: value}, nil
	case jqKeys[key]:
		return Attribute{Kind: Jq, Value: value}, nil
	case jmesKeys[key]:
		return Attribute{Kind: JMESPath, Value: value}, nil
	}
	return Attribute{}, fmt.Errorf("filter: unknown key %q", kv.Key)
}
