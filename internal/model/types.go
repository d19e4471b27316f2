package model

import "github.com/goliatone/go-buildergen/pkg/schema"

// Rule is the setter behaviour chosen for a field.
type Rule string

const (
	// RuleOptional stores a pointer to the provided value; never missing.
	RuleOptional Rule = "optional"
	// RuleAccumulate appends to a collection; never missing.
	RuleAccumulate Rule = "accumulate"
	// RuleRequired stores the value in a slot that must be filled by Build
	// time unless a default exists.
	RuleRequired Rule = "required"
)

// Method is the generated method that writes one field.
type Method struct {
	Name  string `json:"name"`
	Param string `json:"param"`
	// Validator is a func(Param) error reference; it makes the method
	// return (*Builder, error).
	Validator string `json:"validator,omitempty"`
	Fallible  bool   `json:"fallible"`
	Doc       string `json:"doc"`
}

// Default describes how Build fills an unset required field: by calling
// Provider, or with the zero value when Zero is set.
type Default struct {
	Provider string `json:"provider,omitempty"`
	Zero     bool   `json:"zero"`
}

// FieldPlan is the synthesized storage and setter for one struct field.
type FieldPlan struct {
	Field    string   `json:"field"`
	Type     string   `json:"type"`
	Rule     Rule     `json:"rule"`
	SlotType string   `json:"slotType"`
	Method   Method   `json:"method"`
	Default  *Default `json:"default,omitempty"`
}

// Builder is the synthesized companion of one struct.
type Builder struct {
	Target      string      `json:"target"`
	TargetType  string      `json:"targetType"`
	Name        string      `json:"name"`
	TypeParams  string      `json:"typeParams,omitempty"`
	TypeArgs    string      `json:"typeArgs,omitempty"`
	Constructor string      `json:"constructor"`
	ErrorAlias  string      `json:"errorAlias"`
	Runtime     string      `json:"runtime"`
	Fields      []FieldPlan `json:"fields"`
	// Validator is a func(Target) error reference run by Build after every
	// field resolved.
	Validator string `json:"validator,omitempty"`
}

// File is everything one generated source file contains.
type File struct {
	Package  string          `json:"package"`
	Header   string          `json:"header"`
	Imports  []schema.Import `json:"imports"`
	Builders []Builder       `json:"builders"`
}
