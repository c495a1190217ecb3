// Package dvo (stands for Document Value Objects) models typed documents as
// trees of field values and mutates them through compiled field paths.
//
// It has 3 parts:
//
// 1. A data type hierarchy (primitives, arrays, weighted sets, maps, structs,
// documents) and the matching field value hierarchy, with typed accessors,
// comparison and change tracking.
//
// 2. A field path compiler and a nested iteration engine: a dotted/bracketed
// expression like "addresses[$i].city" compiles against a type into a reusable
// FieldPath, and a visitor walks any value of that type along the path,
// reading, rewriting or removing the values it resolves to.
//
// 3. Field path updates (assign, remove, add) that apply such walks to whole
// documents, optionally narrowed by a selection predicate over the loop
// variables the path binds, with a wire format for shipping updates around.
//
// Struct values keep their fields in compressed serialized chunks and only
// decode a field on first access, so reading one field of a large document
// does not pay for the rest.
package dvo
