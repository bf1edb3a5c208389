// Package compiler compiles CUE schemas and validates JSON documents
// against them before they are written.
//
// A schema file is ordinary CUE. Its root value is unified with each
// document, and the result must be concrete:
//
//	inner: int & >=0
//	name?: string
//
// Definitions close the schema, so unknown fields are rejected:
//
//	#Foo: {inner: int}
//	#Foo
package compiler
