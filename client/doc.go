// Package client implements the MCP protocol client the bridge core is
// built around: the initialize handshake, tool discovery and tool calls
// over any jsonrpc/transport.Transport.
//
// Every operation except Initialize fails fast with ErrNotInitialized
// until the handshake has completed; nothing ever silently hangs on an
// unstarted instance. When the transport dies the owner calls Reset, which
// flips the client back to the not-initialized state until a fresh
// transport is attached.
package client
