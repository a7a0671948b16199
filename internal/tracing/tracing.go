// Package tracing owns the OpenTelemetry provider for the operator. Spans
// are opened per handled incident event so one correlation id reads as one
// trace in the backend.
package tracing

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/recist-io/recist/internal/logging"
)

// exporterDialTimeout bounds the initial OTLP connection attempt.
const exporterDialTimeout = 5 * time.Second

// Config selects the OTLP gRPC export target. With Enabled false the
// provider is a no-op and Tracer hands out spans that go nowhere.
type Config struct {
	Enabled     bool
	Endpoint    string
	TLSCAPath   string
	TLSInsecure bool
}

// Provider is the process-wide tracer provider, registered as a lifecycle
// component so pending spans are flushed during shutdown.
type Provider struct {
	sdk     *sdktrace.TracerProvider
	logger  *logging.Logger
	enabled bool
}

// NewTracingProvider builds the provider and installs it globally. A
// disabled config yields a working no-op provider rather than an error.
func NewTracingProvider(cfg Config) (*Provider, error) {
	logger := logging.GetLogger("tracing")

	if !cfg.Enabled {
		logger.Info("Tracing disabled")
		return &Provider{logger: logger}, nil
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tracing enabled but endpoint not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), exporterDialTimeout)
	defer cancel()

	options := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	creds, err := transportCredentials(cfg, logger)
	if err != nil {
		return nil, err
	}
	options = append(options, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(creds)))
	if cfg.TLSCAPath == "" && !cfg.TLSInsecure {
		options = append(options, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName("recist"),
		semconv.ServiceVersion("0.1.0"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(sdk)

	logger.Info("Tracing initialized with endpoint: %s", cfg.Endpoint)
	return &Provider{sdk: sdk, logger: logger, enabled: true}, nil
}

// transportCredentials resolves the gRPC credentials for the exporter: a
// custom CA, verification disabled, or plaintext.
func transportCredentials(cfg Config, logger *logging.Logger) (credentials.TransportCredentials, error) {
	if cfg.TLSInsecure {
		logger.Warn("Tracing TLS certificate verification disabled")
		return credentials.NewTLS(&tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS12,
		}), nil
	}

	if cfg.TLSCAPath != "" {
		pem, err := os.ReadFile(cfg.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.TLSCAPath)
		}
		logger.Info("Tracing TLS enabled with CA from %s", cfg.TLSCAPath)
		return credentials.NewTLS(&tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}), nil
	}

	return insecure.NewCredentials(), nil
}

// Name implements lifecycle.Component.
func (p *Provider) Name() string {
	return "Tracing Provider"
}

// Start implements lifecycle.Component. The exporter connects lazily, so
// there is nothing to do here.
func (p *Provider) Start(ctx context.Context) error {
	return nil
}

// Stop flushes buffered spans and shuts the provider down.
func (p *Provider) Stop(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	if err := p.sdk.Shutdown(ctx); err != nil {
		p.logger.Error("Error shutting down tracer provider: %v", err)
		return err
	}
	p.logger.Info("Tracing provider stopped")
	return nil
}

// IsEnabled reports whether spans are exported anywhere.
func (p *Provider) IsEnabled() bool {
	return p.enabled
}

// Tracer returns a named tracer from the globally installed provider. Safe
// to call before NewTracingProvider; spans are dropped until a provider is
// installed.
func Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}
