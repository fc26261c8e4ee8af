//go:build !substrate_debug

package core

// debugAssertions enables checks for API misuse that is otherwise undefined.
// Build with -tags substrate_debug to turn them on.
const debugAssertions = false
