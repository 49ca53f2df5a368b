// Package domain defines the core types for netgraph network topologies.
//
// # Core Types
//
// AssetType is the closed set of network element kinds (pc, router, switch,
// server, firewall, internet) together with their descriptor codes.
//
// Node is a declared element: an asset type and a name.
//
// Graph holds nodes in declaration order and links as pairs of node
// indices. Graphs are immutable once built.
//
// Builder accumulates a Graph, resolving link endpoints by name against the
// nodes declared so far. The first node declared with a name wins.
//
// # Diagnostics
//
// Diagnostic is the error returned when a descriptor cannot be loaded. It
// carries a kind, the 1-based source line and enough context to explain
// the failure without the source text.
package domain
