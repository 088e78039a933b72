// Package logging configures structured JSON logging for addressbook.
//
// Logs go to a size-rotated file under ~/.addressbook/logs/ and, outside stdio
// mode, are mirrored to stderr. In stdio mode stdout carries the MCP protocol
// stream, so nothing is ever written to stdout or stderr.
package logging
