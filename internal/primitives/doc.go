// Package primitives defines declarative machine definitions: plain data that
// can be written by hand, loaded from YAML or JSON, validated, versioned and
// compiled into an fsmx machine by package core.
//
// Definitions use the generic State and Event values, whose Kind is their Type
// string. A definition names its side effects and entry/exit actions; the
// functions behind the names are supplied at compile time.
package primitives
