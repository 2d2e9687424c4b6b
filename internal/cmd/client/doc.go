// Package client provides the `commlog` command-line client.
//
// The list commands talk to a running commlog server over HTTP. The
// sandbox commands open the local Pebble store directly and are meant for
// seeding test data before starting the server with provider mode
// "sandbox".
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it
// defaults to http://127.0.0.1:8080 and can be overridden with
// COMMLOG_API.
//
// Usage
//
//	commlog calls list --number +15551234567 --page 2 --page-size 20
//	commlog messages list --direction inbound --since 2025-01-01T00:00:00Z
//	commlog calls list --filter 'duration > 60.0 && status == "ended"' -o json
//
//	commlog sandbox import --kind call --file calls.json
//	commlog sandbox import --kind message < messages.json
//	commlog sandbox count
//	commlog sandbox reset --kind message --confirm
package client
