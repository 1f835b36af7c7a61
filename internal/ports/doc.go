// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [DocumentSource]: Loads and watches the surface document
//   - [StateRepository]: Persists and loads agent state
//   - [FrameSink]: Receives decoded tunnel frames for fan-out
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters, internal/relay) implement them
// with concrete implementations (file system, WebSocket relay).
package ports
