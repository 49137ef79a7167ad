// Package stdio implements a JSON-RPC transport over the standard streams
// of a supervised child process. It satisfies the jsonrpc/transport.Transport
// interface, so MCP clients built for HTTP or SSE transports work unchanged
// against a locally spawned tool provider.
//
// The transport owns three responsibilities that the rest of the module
// builds on:
//   - process supervision: spawning the child with piped stdio, logging its
//     stderr, and treating an unexpected exit or stdin write failure as
//     fatal for every in-flight request;
//   - framing: recovering newline-delimited JSON messages from the child's
//     stdout, tolerating messages split across arbitrary read chunks and
//     dropping malformed lines without killing the decode loop;
//   - correlation: matching responses to requests by monotonically
//     increasing numeric ids, with an independent deadline per request.
//
// Requests may complete in any order relative to submission; a response for
// an id with no pending request (already resolved, timed out, or unknown)
// is a no-op.
package stdio
