// Package internal contains the core implementation packages for stylesync.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the stylesync CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - css: Hashing, selector fragments, property casing and precedence tiers
//   - styletree: Ordered style trees, deep merge and the YAML style format
//   - stylecache: Content-addressed store of rule origins
//   - compiler: Flattening of style trees into atomic rules
//   - manager: Reference counted, capacity packed style containers
//   - target: Render targets the manager writes containers into
//   - websocket: Live target mirroring container operations to browsers
//   - registry: Consumers mounted from style files
//   - watcher: File system monitoring with debouncing
//   - config, logging, errors, version: Ambient support
//
// # Data Flow
//
// A style file is parsed by styletree and mounted by registry, which
// compiles it with compiler and reports rule usage to manager. The manager
// batches usage changes until Flush, then writes each dirty container once
// through a target. The watcher drives the same path on file edits.
package internal
