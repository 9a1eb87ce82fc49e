//go:build !enginedebug

package engine

const debugAssertions = false
