package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.2.3"
	if got := GetVersion(); got != "1.2.3" {
		t.Errorf("Expected '1.2.3', got: %s", got)
	}

	Version = ""
	if got := GetVersion(); got != "unknown" {
		t.Errorf("Expected 'unknown' fallback, got: %s", got)
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be valid: %v", err)
	}
	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be a no-op: %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}

func TestGetPanicsBeforeLoad(t *testing.T) {
	if globalCfg != nil {
		t.Skip("configuration already loaded in this process")
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected Get to panic before Load")
		}
	}()
	Get()
}
