// Package probe exists to validate the test scaffolding end to end.
package probe

// Ping returns a fixed success token.
func Ping() string {
	return "ok"
}
