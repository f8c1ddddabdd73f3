// Package utils provides input validation for the command surface.
//
// Validation:
//   - Payload size limits for request bodies, script sources, and page HTML
//   - Argument nesting depth limits for script argument trees
//
// Limits are enforced before any parsing or engine work happens, so an
// oversized or pathologically nested payload is rejected cheaply.
package utils
