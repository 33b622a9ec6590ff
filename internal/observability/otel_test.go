package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tbourn/daily-tiers/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabledCfg(name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_Disabled_NoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prevTP := otel.GetTracerProvider()

	cfg := enabledCfg("daily-tiers")
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "v0.0.0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("disabled setup must not replace the provider")
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveOTelGlobals(t)

		cfg := enabledCfg("daily-tiers")
		cfg.Insecure = insecure
		shutdown, err := SetupOTel(context.Background(), cfg, "v1.2.3")
		if err != nil {
			t.Fatalf("insecure=%v: unexpected err: %v", insecure, err)
		}

		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("insecure=%v: expected *sdktrace.TracerProvider", insecure)
		}

		// Sampled span context round-trips through the propagator.
		ctx, span := Tracer("test").Start(context.Background(), "span")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if carrier.Get("traceparent") == "" {
			t.Fatalf("insecure=%v: expected traceparent to be injected", insecure)
		}

		ct, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		if err := shutdown(ct); err != nil {
			t.Fatalf("shutdown returned error: %v", err)
		}
		cancel()
	}
}

func TestSetupOTel_CanceledContext_StillSucceeds(t *testing.T) {
	preserveOTelGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // exporter creation is lazy

	shutdown, err := SetupOTel(ctx, enabledCfg("svc-canceled"), "vX.Y.Z")
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_ResourceCarriesServiceIdentity(t *testing.T) {
	preserveOTelGlobals(t)

	orig := newServiceResourceFn
	t.Cleanup(func() { newServiceResourceFn = orig })

	var gotName, gotVersion string
	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		gotName, gotVersion = serviceName, version
		return orig(ctx, serviceName, version)
	}

	shutdown, err := SetupOTel(context.Background(), enabledCfg("daily-tiers"), "v2.0.0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if gotName != "daily-tiers" || gotVersion != "v2.0.0" {
		t.Fatalf("resource built with %q/%q", gotName, gotVersion)
	}
}

func TestSetupOTel_Errors_LeaveGlobalsIntact(t *testing.T) {
	cases := map[string]func(t *testing.T){
		"exporter": func(t *testing.T) {
			orig := newOTLPExporterFn
			t.Cleanup(func() { newOTLPExporterFn = orig })
			newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("boom-exporter")
			}
		},
		"resource": func(t *testing.T) {
			orig := newServiceResourceFn
			t.Cleanup(func() { newServiceResourceFn = orig })
			newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		},
	}

	for name, breakSeam := range cases {
		t.Run(name, func(t *testing.T) {
			preserveOTelGlobals(t)
			breakSeam(t)

			prevTP := otel.GetTracerProvider()
			prevProp := otel.GetTextMapPropagator()

			if _, err := SetupOTel(context.Background(), enabledCfg("svc"), "v0"); err == nil {
				t.Fatalf("expected error, got nil")
			}
			if otel.GetTracerProvider() != prevTP {
				t.Fatalf("tracer provider changed on failure")
			}
			if otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("propagator changed on failure")
			}
		})
	}
}

func TestTracer_UsesGlobalProviderAndModuleScope(t *testing.T) {
	preserveOTelGlobals(t)

	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	_, span := Tracer("scheduler").Start(context.Background(), "pass")
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if got := ended[0].InstrumentationScope().Name; got != instrumentationPrefix+"scheduler" {
		t.Fatalf("scope = %q", got)
	}
}
