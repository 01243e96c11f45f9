package version

// Version is the server release version reported in the MCP initialize response.
const Version = "0.2.0"

// ProtocolVersion is the MCP protocol revision this server speaks by default.
const ProtocolVersion = "2024-11-05"

// SupportedProtocolVersions lists the protocol revisions the server can
// negotiate with a client, newest first.
var SupportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}
