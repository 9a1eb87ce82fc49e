//go:build enginedebug

package engine

// Built with -tags enginedebug, precondition violations panic.
const debugAssertions = true
