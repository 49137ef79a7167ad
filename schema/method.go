package schema

// ProtocolVersion is the MCP revision the bridge negotiates during the
// initialize handshake.
const ProtocolVersion = "2024-11-05"

const (
	MethodInitialize              = "initialize"
	MethodPing                    = "ping"
	MethodToolsList               = "tools/list"
	MethodToolsCall               = "tools/call"
	MethodNotificationInitialized = "notifications/initialized"
	MethodNotificationProgress    = "notifications/progress"
	MethodNotificationMessage     = "notifications/message"
	MethodNotificationCancel      = "notifications/cancelled"
)
