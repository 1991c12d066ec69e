package colors

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestInit_ForceOn(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = true
	forceOn := true
	Init(&forceOn)

	if color.NoColor {
		t.Error("expected colors enabled when Init(true)")
	}
	if !Enabled() {
		t.Error("Enabled() should return true")
	}
}

func TestInit_ForceOff(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	forceOff := false
	Init(&forceOff)

	if !color.NoColor {
		t.Error("expected colors disabled when Init(false)")
	}
	if Enabled() {
		t.Error("Enabled() should return false")
	}
}

func TestInit_Nil_KeepsExisting(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	Init(nil)
	if color.NoColor {
		t.Error("Init(nil) should not change NoColor when it was false")
	}

	color.NoColor = true
	Init(nil)
	if !color.NoColor {
		t.Error("Init(nil) should not change NoColor when it was true")
	}
}

func TestColorOutput(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	if out := Bold().Sprint("test"); !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI codes when colors enabled, got: %q", out)
	}

	color.NoColor = true
	if out := Bold().Sprint("test"); out != "test" {
		t.Errorf("expected plain text when colors disabled, got: %q", out)
	}
}
