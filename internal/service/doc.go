// Package service implements the level workflows of netgraph.
//
// LevelService sits between the HTTP handlers, the file watcher and the
// repository. It parses descriptors, stores the resulting graphs under a
// level name, exports them through the codec package and publishes an event
// for every change.
//
// # Event System
//
// Events go out on an EventBus. The hub package relays them to Server-Sent
// Events clients. Event types are level_loaded, level_failed and
// level_deleted; a level_failed payload carries the diagnostic that stopped
// the parse.
package service
