//go:build ostreedebug

package ostree

const debugChecks = true
