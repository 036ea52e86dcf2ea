package preferences

import (
	"path/filepath"
	"testing"

	"quiz-generator-service/internal/domain"
)

func TestHexToHSLMatchesPreset(t *testing.T) {
	cases := map[string]string{
		"#7c3aed": "262 83% 58%",
		"#fff":    "0 0% 100%",
		"000000":  "0 0% 0%",
	}
	for hex, want := range cases {
		got, err := HexToHSL(hex)
		if err != nil {
			t.Fatalf("%s: %v", hex, err)
		}
		if got != want {
			t.Fatalf("%s: expected %q, got %q", hex, want, got)
		}
	}
	if _, err := HexToHSL("#12345"); err == nil {
		t.Fatalf("expected invalid hex error")
	}
}

func TestHSLToHex(t *testing.T) {
	if got := HSLToHex("0 0% 100%"); got != "#ffffff" {
		t.Fatalf("expected white, got %s", got)
	}
	if got := HSLToHex("0 100% 50%"); got != "#ff0000" {
		t.Fatalf("expected red, got %s", got)
	}
	if got := HSLToHex("garbage"); got != "#000000" {
		t.Fatalf("expected fallback black, got %s", got)
	}
}

func TestIsLight(t *testing.T) {
	if !IsLight(DefaultForeground) {
		t.Fatalf("expected foreground to be light")
	}
	if IsLight(Presets[SchemeGreen].Primary) {
		t.Fatalf("expected green preset to be dark")
	}
}

func TestUpdateValidates(t *testing.T) {
	bad := Radius("xl")
	if _, err := (Update{Radius: &bad}).Apply(Defaults()); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	hex := "#2563eb"
	prefs, err := (Update{CustomColor: &hex}).Apply(Defaults())
	if err != nil {
		t.Fatalf("apply custom color: %v", err)
	}
	if prefs.ColorScheme != SchemeCustom || prefs.Colors().PrimaryForeground != DefaultForeground {
		t.Fatalf("expected custom scheme, got %+v", prefs)
	}
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "preferences.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := store.Get("alice"); got != Defaults() {
		t.Fatalf("expected defaults, got %+v", got)
	}

	dark := ThemeDark
	style := StyleNewYork
	if _, err := store.Update("alice", Update{Theme: &dark}); err != nil {
		t.Fatalf("update theme: %v", err)
	}
	if _, err := store.Update("alice", Update{Style: &style}); err != nil {
		t.Fatalf("update style: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Get("alice")
	if got.Theme != ThemeDark || got.Style != StyleNewYork || got.Radius != RadiusMD {
		t.Fatalf("unexpected persisted preferences %+v", got)
	}
	if reopened.Get("bob").Theme != ThemeSystem {
		t.Fatalf("expected defaults for other users")
	}
}
