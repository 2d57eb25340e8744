// Package httputil carries the JSON response helpers shared by the status
// server and the stub gateway. Handlers reply through these instead of
// touching the encoder directly, so every endpoint uses the same content
// type and error envelope.
package httputil
