package instrumentation

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER", "TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG"} {
		t.Setenv(key, "")
	}

	config := DefaultConfig()

	if config.ServiceName != "chronocall" {
		t.Errorf("expected ServiceName 'chronocall', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter 'prometheus', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate 0.1, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.Enabled || config.AuditLogging.IncludePII {
		t.Errorf("unexpected audit defaults: %+v", config.AuditLogging)
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "true")

	config := DefaultConfig()

	if config.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %q", config.ServiceName)
	}
	if config.Enabled {
		t.Error("expected Enabled to be false")
	}
	if config.MetricsExporter != "stdout" || config.TracingExporter != "stdout" {
		t.Errorf("unexpected exporters %q/%q", config.MetricsExporter, config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("expected TraceSamplingRate 0.5, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.IncludePII {
		t.Error("expected IncludePII from env")
	}
}

func TestDefaultConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "maybe")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "lots")

	config := DefaultConfig()

	if !config.Enabled {
		t.Error("expected unparsable bool to fall back to true")
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected unparsable float to fall back to 0.1, got %f", config.TraceSamplingRate)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid prometheus",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 0.1},
		},
		{
			name:   "valid otlp",
			config: Config{MetricsExporter: ExporterOTLP, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318", TraceSamplingRate: 1},
		},
		{
			name:   "empty exporters",
			config: Config{},
		},
		{
			name:    "sampling rate too high",
			config:  Config{TraceSamplingRate: 1.5},
			wantErr: true,
		},
		{
			name:    "negative sampling rate",
			config:  Config{TraceSamplingRate: -0.1},
			wantErr: true,
		},
		{
			name:    "unknown metrics exporter",
			config:  Config{MetricsExporter: "statsd"},
			wantErr: true,
		},
		{
			name:    "unknown tracing exporter",
			config:  Config{TracingExporter: "jaeger"},
			wantErr: true,
		},
		{
			name:    "otlp without endpoint",
			config:  Config{TracingExporter: ExporterOTLP},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
