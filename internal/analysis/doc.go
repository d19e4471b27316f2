// Package analysis turns parsed struct declarations into schema.StructSchema
// values: it rejects declarations that cannot have a builder, reads
// annotations, classifies field shapes and records the imports field types
// rely on.
package analysis
