package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dunamismax/webpwizard/internal/domain"
	"github.com/dunamismax/webpwizard/internal/storage"
	"github.com/dunamismax/webpwizard/internal/telemetry"
)

type Config struct {
	Output    OutputConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

type OutputConfig struct {
	Dir       string
	Tolerance domain.Tolerance
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	Prefix      string
	DownloadTTL time.Duration
}

func (s StorageConfig) ClientConfig() storage.Config {
	return storage.Config{
		Endpoint: s.Endpoint,
		Access:   s.AccessKey,
		Secret:   s.SecretKey,
		Bucket:   s.Bucket,
		UseSSL:   s.UseSSL,
	}
}

type TelemetryConfig struct {
	TraceExporter  string
	OTLPEndpoint   string
	OTLPInsecure   bool
	PushgatewayURL string
}

func (t TelemetryConfig) TraceConfig() telemetry.TraceConfig {
	return telemetry.TraceConfig{
		ServiceName:  "webpwizard",
		Exporter:     t.TraceExporter,
		OTLPEndpoint: t.OTLPEndpoint,
		OTLPInsecure: t.OTLPInsecure,
	}
}

func Load() Config {
	return Config{
		Output: OutputConfig{
			Dir:       env("WEBPWIZARD_OUTPUT_DIR", "./webpwizard-output"),
			Tolerance: envTolerance("WEBPWIZARD_TOLERANCE", domain.DefaultTolerance),
		},
		Storage: StorageConfig{
			Endpoint:    env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:   env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:   env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:      env("MINIO_BUCKET", "webpwizard"),
			UseSSL:      envBool("MINIO_USE_SSL", false),
			Prefix:      env("WEBPWIZARD_OBJECT_PREFIX", "outputs"),
			DownloadTTL: envDuration("WEBPWIZARD_PRESIGN_TTL", 15*time.Minute),
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  env("WEBPWIZARD_TRACE_EXPORTER", "none"),
			OTLPEndpoint:   env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure:   envBool("WEBPWIZARD_OTLP_INSECURE", false),
			PushgatewayURL: env("WEBPWIZARD_PUSHGATEWAY_URL", ""),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envTolerance(key string, fallback domain.Tolerance) domain.Tolerance {
	level := domain.Tolerance(envInt(key, int(fallback)))
	if level.Validate() != nil {
		return fallback
	}
	return level
}
