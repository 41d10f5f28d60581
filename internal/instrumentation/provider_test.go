package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, metricsExporter, tracingExporter string) *Provider {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: metricsExporter,
		TracingExporter: tracingExporter,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test-service", Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name    string
		metrics string
		tracing string
		wantErr bool
	}{
		{name: "prometheus", metrics: ExporterPrometheus, tracing: ExporterNone},
		{name: "defaults", metrics: "", tracing: ""},
		{name: "stdout", metrics: ExporterStdout, tracing: ExporterStdout},
		{name: "invalid metrics exporter", metrics: "invalid", tracing: ExporterNone, wantErr: true},
		{name: "invalid tracing exporter", metrics: ExporterPrometheus, tracing: "invalid", wantErr: true},
		{name: "otlp tracing without endpoint", metrics: ExporterPrometheus, tracing: ExporterOTLP, wantErr: true},
		{name: "otlp metrics without endpoint", metrics: ExporterOTLP, tracing: ExporterNone, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, Config{
				ServiceName:     "test-service",
				Enabled:         true,
				MetricsExporter: tt.metrics,
				TracingExporter: tt.tracing,
			})
			if tt.wantErr {
				if err == nil {
					_ = provider.Shutdown(ctx)
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer func() { _ = provider.Shutdown(ctx) }()

			if !provider.Enabled() {
				t.Error("expected provider to be enabled")
			}
			if provider.Metrics() == nil {
				t.Error("expected metrics to be non-nil")
			}
		})
	}
}

func TestProvider_AuditLogger(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      false,
		AuditLogging: AuditLoggingConfig{Enabled: true, IncludePII: true},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	al := provider.AuditLogger(nil)
	if !al.enabled || !al.includePII {
		t.Errorf("audit logger did not inherit config: enabled=%v includePII=%v", al.enabled, al.includePII)
	}
}
