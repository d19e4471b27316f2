package annotation

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// Scope selects which attributes are accepted.
type Scope int

const (
	ScopeField Scope = iota
	ScopeStruct
)

func (s Scope) String() string {
	if s == ScopeStruct {
		return "struct"
	}
	return "field"
}

// item is one `name` or `name = value` entry of a block.
type item struct {
	name      string
	nameRange hcl.Range
	value     hcl.Expression
	rng       hcl.Range
}

type attributeParser func(item) (schema.Directive, hcl.Diagnostics)

var attributes = map[string]attributeParser{
	"each":     parseEach,
	"validate": parseValidate,
	"default":  parseDefault,
}

var scopes = map[Scope][]string{
	ScopeField:  {"each", "validate", "default"},
	ScopeStruct: {"validate"},
}

// Parse reads every item of block. Items are independent: a failing item adds
// a diagnostic and the remaining items are still attempted. Recognised
// directives are returned in source order.
func Parse(block Block, scope Scope) ([]schema.Directive, hcl.Diagnostics) {
	var (
		directives []schema.Directive
		diags      hcl.Diagnostics
	)

	for _, span := range splitItems(block.Text) {
		it, itemDiags := parseItem(block, span)
		diags = append(diags, itemDiags...)
		if itemDiags.HasErrors() {
			continue
		}

		if !allowed(scope, it.name) {
			diags = append(diags, unknownAttribute(scope, it))
			continue
		}

		directive, attrDiags := attributes[it.name](it)
		diags = append(diags, attrDiags...)
		if attrDiags.HasErrors() {
			continue
		}
		directives = append(directives, directive)
	}

	return directives, diags
}

// Keys returns the attribute names accepted in scope.
func Keys(scope Scope) []string {
	return append([]string(nil), scopes[scope]...)
}

func allowed(scope Scope, name string) bool {
	for _, key := range scopes[scope] {
		if key == name {
			return true
		}
	}
	return false
}

func parseItem(block Block, s span) (item, hcl.Diagnostics) {
	start, end := trimSpan(block.Text, s.start, s.end)
	it := item{rng: block.rangeOf(start, end)}

	eq := s.eq
	nameEnd := end
	if eq >= 0 {
		nameEnd = eq
	}
	nameStart, nameEnd := trimSpan(block.Text, start, nameEnd)
	it.name = block.Text[nameStart:nameEnd]
	it.nameRange = block.rangeOf(nameStart, nameEnd)

	if it.name == "" || !hclsyntax.ValidIdentifier(it.name) {
		return it, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid builder attribute",
			Detail:   fmt.Sprintf("Expected an attribute name or name = value, got %q.", block.Text[start:end]),
			Subject:  it.rng.Ptr(),
		}}
	}
	if eq < 0 {
		return it, nil
	}

	valueStart, valueEnd := trimSpan(block.Text, eq+1, end)
	if valueStart == valueEnd {
		return it, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing attribute value",
			Detail:   fmt.Sprintf("The %q attribute has an equals sign but no value.", it.name),
			Subject:  it.rng.Ptr(),
		}}
	}

	src := []byte(block.Text[valueStart:valueEnd])
	expr, diags := hclsyntax.ParseExpression(src, block.filename, block.pos(valueStart))
	if diags.HasErrors() {
		return it, diags
	}
	it.value = expr
	return it, nil
}

func unknownAttribute(scope Scope, it item) *hcl.Diagnostic {
	detail := fmt.Sprintf("The %q attribute is not supported on a %s.", it.name, scope)
	if _, known := attributes[it.name]; known {
		detail = fmt.Sprintf("The %q attribute cannot be used on a %s.", it.name, scope)
	} else if suggestion := nameSuggestion(it.name, Keys(scope)); suggestion != "" {
		detail += fmt.Sprintf(" Did you mean %q?", suggestion)
	}
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "builder attribute not recognized",
		Detail:   detail,
		Subject:  it.nameRange.Ptr(),
	}
}

func parseEach(it item) (schema.Directive, hcl.Diagnostics) {
	if it.value == nil {
		return schema.Directive{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing method name",
			Detail:   `The "each" attribute needs a method name, for example each="Arg".`,
			Subject:  it.rng.Ptr(),
		}}
	}

	alias := hcl.ExprAsKeyword(it.value)
	if alias == "" {
		val, diags := it.value.Value(nil)
		if diags.HasErrors() || val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
			return schema.Directive{}, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid method name",
				Detail:   `The "each" attribute expects a quoted or bare identifier.`,
				Subject:  it.value.Range().Ptr(),
			}}
		}
		alias = val.AsString()
	}

	if !token.IsIdentifier(alias) {
		return schema.Directive{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid method name",
			Detail:   fmt.Sprintf("%q is not a valid Go identifier.", alias),
			Subject:  it.value.Range().Ptr(),
		}}
	}
	return schema.Each(alias, it.rng), nil
}

func parseValidate(it item) (schema.Directive, hcl.Diagnostics) {
	if it.value == nil {
		return schema.Directive{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing validator",
			Detail:   `The "validate" attribute needs a function reference, for example validate=ValidateUser.`,
			Subject:  it.rng.Ptr(),
		}}
	}
	ref, diags := reference(it.value, "Invalid validator reference")
	if diags.HasErrors() {
		return schema.Directive{}, diags
	}
	return schema.Validate(ref, it.rng), nil
}

func parseDefault(it item) (schema.Directive, hcl.Diagnostics) {
	if it.value == nil {
		return schema.Default("", it.rng), nil
	}
	ref, diags := reference(it.value, "Invalid default provider")
	if diags.HasErrors() {
		return schema.Directive{}, diags
	}
	return schema.Default(ref, it.rng), nil
}

// reference accepts a bare or dotted name, either written directly or inside a
// string literal, and returns it in Go syntax.
func reference(expr hcl.Expression, summary string) (string, hcl.Diagnostics) {
	invalid := hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   "Expected a function name or a dotted reference such as pkg.Check or Type.Method.",
		Subject:  expr.Range().Ptr(),
	}}

	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		val, valDiags := expr.Value(nil)
		if valDiags.HasErrors() || val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
			return "", invalid
		}
		rng := expr.Range()
		traversal, diags = hclsyntax.ParseTraversalAbs([]byte(strings.TrimSpace(val.AsString())), rng.Filename, rng.Start)
		if diags.HasErrors() {
			return "", invalid
		}
	}

	for _, step := range traversal {
		var name string
		switch t := step.(type) {
		case hcl.TraverseRoot:
			name = t.Name
		case hcl.TraverseAttr:
			name = t.Name
		default:
			return "", invalid
		}
		if !token.IsIdentifier(name) {
			return "", invalid
		}
	}

	return string(hclwrite.TokensForTraversal(traversal).Bytes()), nil
}
