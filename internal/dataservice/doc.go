// Package dataservice runs query and save round-trips against a remote
// function-call transport and interprets the result envelopes.
//
// Every call follows the same sequence: build positional parameters, raise
// the busy indicator, call exactly one of (override function, structured
// transport, legacy transport), then interpret the envelope. The busy
// indicator is cleared on every exit path.
//
// Error policy:
//
//   - configuration problems are logged and reported to Diagnostics; the call
//     returns nil without reaching the network
//   - business errors (non-empty ErrorCode) are reported, never returned
//   - transport errors are logged and returned; they are the only errors
//     that cross the Service boundary
//   - malformed data payloads are logged and read as empty lists
package dataservice
