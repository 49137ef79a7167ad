package client

import "github.com/walkingzzzy/office-bridge/schema"

// Option represents a client option.
type Option func(c *Client)

// WithCapabilities sets the capabilities advertised during initialize.
func WithCapabilities(capabilities schema.ClientCapabilities) Option {
	return func(c *Client) {
		c.capabilities = capabilities
	}
}

// WithProtocolVersion overrides the negotiated protocol revision.
func WithProtocolVersion(version string) Option {
	return func(c *Client) {
		c.protocolVersion = version
	}
}
