// Package schema compiles declarative grid and form column definitions.
//
// A page describes its columns with a compact, pipe-delimited colType string
// plus optional combo, format and validator shorthands:
//
//	schema.Declaration{
//	    Field:      "ID_PGM",
//	    Caption:    schema.Caption{"Program ID"},
//	    ColType:    "STR|L|NN|M",
//	    Validators: schema.ValidatorDecls{{Name: "code:special(_-)"}},
//	}
//
// # Compilation
//
// Compilation happens once, when a page is loaded:
//
//  1. [Tokenize] splits the colType string into typed tokens
//  2. [Compile] folds the tokens into [Attributes] in token order
//  3. [Expander.Expand] merges attributes with the raw declaration (the
//     declaration always wins), resolves combos and formats, and normalizes
//     validators through a [Registry]
//
// The resulting [Descriptor] values are treated as immutable.
//
// # colType tokens
//
//	width      integer literal, or XS S M XM XL XXL XXXL
//	data type  STR STRING NUM NUMBER DATE MONTH
//	align      L LEFT C CENTER R RIGHT
//	constraint PK PRIMARYKEY, NN REQ REQUIRED, EX EXCLUDE
//	flags      H HIDE HIDDEN, RO READONLY, SP SKIPPASTE
//
// Single-value attributes take the last token; flags are set by any
// occurrence. The constraint classification is claimed by the first
// constraint token in the string. Unknown tokens are ignored.
//
// # Validators
//
// Validator declarations are a registry name ("code"), a name with a
// special-character override ("code:special(_-)") or an object carrying
// rule/special/message/pattern overrides. Unknown names are logged at WARN
// and dropped.
package schema
