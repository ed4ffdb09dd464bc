// Package statepath implements the structured path index: parsed and
// interned path patterns (Info), the prefix tree of registered
// patterns (Node), stable array-element identities (ListIndex), and
// interned property references (Ref).
//
// All interning is owned by a Caches value. Two requests for the same
// pattern string return the same *Info; two requests for the same
// (Info, ListIndex) pair return the same *Ref. Every registry in the
// core keys by that identity, never by structural comparison.
//
// Path pattern grammar: dot-separated segments where "*" denotes one
// array-level wildcard, e.g. "items.*.name". The canonicalized string
// is the cache key.
package statepath
