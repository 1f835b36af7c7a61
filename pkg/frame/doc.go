// Package frame implements the length-prefixed wire framing spoken by the
// local relay endpoint.
//
// Each frame is a 4-byte big-endian unsigned payload length followed by
// exactly that many payload bytes:
//
//	+--------+--------+--------+--------+-----------------------+
//	|        length (uint32, big-endian)  |  payload (length B)  |
//	+--------+--------+--------+--------+-----------------------+
//
// The payload is opaque; interpreting it is the consumer's job.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package frame
