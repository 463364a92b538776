// Package model defines the data structures exchanged between the sync engine,
// its adapters and the remote store.
package model

// Path represents a file system path.
type Path string

// Tree is a nested configuration mapping. Leaves are scalars, lists ([]any) or
// nested Trees. At the root of a full snapshot the keys are scope selectors.
type Tree = map[string]any

// DefaultScope is the scope selector holding unscoped settings.
const DefaultScope = "*"
