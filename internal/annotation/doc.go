// Package annotation reads builder annotations from struct tags and comment
// directives. Each tag value or directive line is one block: a comma separated
// list of `name` or `name = value` items whose values are parsed as HCL
// expressions so every failure can be reported with an exact source range.
package annotation
