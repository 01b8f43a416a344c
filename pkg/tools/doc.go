// Package tools provides tool execution and MCP (Model Context Protocol) integration.
//
// It is organized into sub-packages:
//   - [github.com/edallison777/hypermage-vr/pkg/tools/toolbox] — Tool type and ToolBox orchestrator for registering, listing, and calling tools
//   - [github.com/edallison777/hypermage-vr/pkg/tools/mcpclient] — MCP client for invoking remote function servers as subprocesses
//   - [github.com/edallison777/hypermage-vr/pkg/tools/mcpserver] — MCP server for exposing remote functions such as addfn over stdio
//
// The toolbox sub-package is the foundation layer. Both mcpclient and
// mcpserver depend on toolbox for the Tool type but are independent of each
// other; they are thin wrappers around the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk).
package tools
