// Package gateway assembles and runs the regina-gateway server.
//
// It wires the SQLite store, the request-id allocator, the matching engine,
// the language-model collaborator, the WhatsApp transport and the
// conversation engine, then serves the webhook, health and metrics endpoints
// over one HTTP listener until shutdown.
package gateway
