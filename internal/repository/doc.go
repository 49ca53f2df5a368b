// Package repository defines the data access interface for stored levels.
//
// A level is a parsed graph kept under a name, together with the descriptor
// text it came from. The sqlite subpackage implements the interface.
//
// # Storage layout
//
// Nodes and links are stored as rows keyed by level name and position, so a
// reloaded graph has the same node indices and link order as the one that was
// saved. Link rows hold node indices rather than names; duplicate node names
// therefore survive a round trip unchanged.
package repository
