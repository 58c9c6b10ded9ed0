package version

import (
	"strings"
	"testing"
)

func TestString_Dirty(t *testing.T) {
	oldV, oldD := Version, Dirty
	t.Cleanup(func() { Version, Dirty = oldV, oldD })

	Version, Dirty = "1.2.0", "true"
	if got := String(); got != "1.2.0-dirty" {
		t.Errorf("String() = %q", got)
	}
	if !Get().Dirty {
		t.Error("Get().Dirty should be true")
	}
}

func TestUserAgent(t *testing.T) {
	oldV := Version
	t.Cleanup(func() { Version = oldV })

	Version = "0.3.1"
	if ua := UserAgent(); !strings.HasPrefix(ua, "kalkulator/0.3.1 (") {
		t.Errorf("UserAgent() = %q", ua)
	}
}

func TestFull(t *testing.T) {
	if !strings.HasPrefix(Full(), "kalkulator ") {
		t.Errorf("Full() = %q", Full())
	}
}
