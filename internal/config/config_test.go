package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CORPORATION_ID", "98000001")
	t.Setenv("ESI_REFRESH_TOKEN", "refresh")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/x/y/z")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DangerDays != 3 {
		t.Errorf("DangerDays = %v, want 3", cfg.DangerDays)
	}
	if cfg.WarningDays != 7 {
		t.Errorf("WarningDays = %v, want 7", cfg.WarningDays)
	}
	if cfg.AllowedSystems != nil {
		t.Errorf("AllowedSystems = %v, want nil", cfg.AllowedSystems)
	}
	if cfg.CorporationID != 98000001 {
		t.Errorf("CorporationID = %d", cfg.CorporationID)
	}
}

func TestLoadMissingCorporationID(t *testing.T) {
	t.Setenv("ESI_REFRESH_TOKEN", "refresh")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/x/y/z")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when CORPORATION_ID is missing")
	}
}

func TestLoadMalformedThresholdFailsClosed(t *testing.T) {
	setRequired(t)
	t.Setenv("DANGER_DAYS_THRESHOLD", "three")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed threshold, not a silent default")
	}
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	setRequired(t)
	t.Setenv("DANGER_DAYS_THRESHOLD", "10")
	t.Setenv("WARNING_DAYS_THRESHOLD", "5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when danger threshold exceeds warning threshold")
	}
}

func TestLoadAllowedSystemsList(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_SYSTEMS", "Jita, Amarr ,,Rens")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"Jita", "Amarr", "Rens"}
	if len(cfg.AllowedSystems) != len(want) {
		t.Fatalf("AllowedSystems = %v", cfg.AllowedSystems)
	}
	for i, name := range want {
		if cfg.AllowedSystems[i] != name {
			t.Errorf("AllowedSystems[%d] = %q, want %q", i, cfg.AllowedSystems[i], name)
		}
	}
}

func TestLoadEqualThresholdsAccepted(t *testing.T) {
	setRequired(t)
	t.Setenv("DANGER_DAYS_THRESHOLD", "5")
	t.Setenv("WARNING_DAYS_THRESHOLD", "5")

	if _, err := Load(); err != nil {
		t.Fatalf("equal thresholds should be valid: %v", err)
	}
}
