//go:build substrate_debug

package core

const debugAssertions = true
