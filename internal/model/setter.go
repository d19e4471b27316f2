package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// SynthesizeField chooses how one field is stored and written:
//
//  1. pointer fields get an optional setter taking the element type
//  2. slice fields with an each directive get a per-element appender
//  3. everything else is required and stored in a runtime Slot
//
// A validate directive makes the chosen method fallible. runtime is the
// qualifier of the runtime package in generated code.
func SynthesizeField(field schema.FieldSchema, runtime string) (FieldPlan, hcl.Diagnostics) {
	diags := duplicateDirectives(field)

	plan := FieldPlan{Field: field.Name, Type: field.Type}
	each, hasEach := field.Each()
	def, hasDefault := field.Default()

	switch {
	case field.Shape.Kind == schema.ShapeOptional:
		plan.Rule = RuleOptional
		plan.SlotType = field.Type
		plan.Method = Method{Name: field.Name, Param: field.Shape.Elem}
	case hasEach && field.Shape.Kind == schema.ShapeCollection:
		plan.Rule = RuleAccumulate
		plan.SlotType = field.Type
		plan.Method = Method{Name: each.Alias, Param: field.Shape.Elem}
	default:
		plan.Rule = RuleRequired
		plan.SlotType = fmt.Sprintf("%s.Slot[%s]", runtime, field.Type)
		plan.Method = Method{Name: field.Name, Param: field.Type}
		if hasDefault {
			plan.Default = &Default{Provider: def.Ref, Zero: def.Implicit}
		}
	}

	if hasEach && plan.Rule != RuleAccumulate {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "each has no effect",
			Detail:   fmt.Sprintf("Field %s has %s shape, not a collection, so %s() is not generated and a regular setter is used instead.", field.Name, field.Shape.Kind, each.Alias),
			Subject:  each.Range.Ptr(),
		})
	}
	if hasDefault && plan.Rule != RuleRequired {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "default has no effect",
			Detail:   fmt.Sprintf("Field %s is %s and never reported missing; the default is ignored.", field.Name, plan.Rule),
			Subject:  def.Range.Ptr(),
		})
	}

	if validator, ok := field.Validator(); ok {
		plan.Method.Validator = validator.Ref
		plan.Method.Fallible = true
	}
	plan.Method.Doc = methodDoc(plan)

	return plan, diags
}

func duplicateDirectives(field schema.FieldSchema) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, kind := range []schema.DirectiveKind{schema.DirectiveEach, schema.DirectiveValidate, schema.DirectiveDefault} {
		all := field.Directives.All(kind)
		for _, extra := range all[min(1, len(all)):] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "Duplicate builder attribute",
				Detail:   fmt.Sprintf("Only the first %q attribute on field %s is applied.", kind, field.Name),
				Subject:  extra.Range.Ptr(),
			})
		}
	}
	return diags
}

func methodDoc(plan FieldPlan) string {
	var doc string
	switch plan.Rule {
	case RuleAccumulate:
		doc = fmt.Sprintf("%s appends one element to %s.", plan.Method.Name, plan.Field)
	default:
		doc = fmt.Sprintf("%s sets %s.", plan.Method.Name, plan.Field)
	}
	if plan.Method.Validator != "" {
		doc += fmt.Sprintf(" Values rejected by %s leave the builder unchanged.", plan.Method.Validator)
	}
	return doc
}
