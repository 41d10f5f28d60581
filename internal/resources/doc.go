// Package resources provides read-only MCP resources: the accounts that
// can be used with the chrono tools and the usage text.
package resources
