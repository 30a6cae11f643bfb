package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBPWIZARD_OUTPUT_DIR", "")
	t.Setenv("WEBPWIZARD_TOLERANCE", "")
	t.Setenv("WEBPWIZARD_PRESIGN_TTL", "")

	cfg := Load()
	if cfg.Output.Dir != "./webpwizard-output" {
		t.Fatalf("unexpected default output dir %q", cfg.Output.Dir)
	}
	if cfg.Output.Tolerance != 3 {
		t.Fatalf("expected default tolerance 3, got %d", cfg.Output.Tolerance)
	}
	if cfg.Storage.DownloadTTL != 15*time.Minute {
		t.Fatalf("expected 15m download ttl, got %s", cfg.Storage.DownloadTTL)
	}
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("WEBPWIZARD_OUTPUT_DIR", "/tmp/out")
	t.Setenv("WEBPWIZARD_TOLERANCE", "7")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("WEBPWIZARD_PRESIGN_TTL", "not-a-duration")
	t.Setenv("WEBPWIZARD_TRACE_EXPORTER", "stdout")

	cfg := Load()
	if cfg.Output.Dir != "/tmp/out" {
		t.Fatalf("expected overridden output dir, got %q", cfg.Output.Dir)
	}
	if cfg.Output.Tolerance != 7 {
		t.Fatalf("expected tolerance 7, got %d", cfg.Output.Tolerance)
	}
	if !cfg.Storage.UseSSL {
		t.Fatal("expected MINIO_USE_SSL=true")
	}
	if cfg.Storage.DownloadTTL != 15*time.Minute {
		t.Fatalf("expected fallback ttl on bad value, got %s", cfg.Storage.DownloadTTL)
	}
	if got := cfg.Telemetry.TraceConfig(); got.Exporter != "stdout" || got.ServiceName != "webpwizard" {
		t.Fatalf("unexpected trace config %+v", got)
	}
}

func TestLoadRejectsOutOfRangeTolerance(t *testing.T) {
	for _, value := range []string{"50", "0", "-3"} {
		t.Setenv("WEBPWIZARD_TOLERANCE", value)
		if got := Load().Output.Tolerance; got != 3 {
			t.Fatalf("WEBPWIZARD_TOLERANCE=%s: expected fallback 3, got %d", value, got)
		}
	}
}
