package probe

import "testing"

func TestPing(t *testing.T) {
	if got := Ping(); got != "ok" {
		t.Errorf("expected %q, got %q", "ok", got)
	}
}
