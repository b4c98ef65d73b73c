package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/logger"
)

type Config struct {
	Enabled     bool
	ServiceName string            // e.g., "ep-register"
	Exporter    string            // "stdout", "otlp" or "none"
	Endpoint    string            // OTLP endpoint, e.g., "localhost:4317"
	Protocol    string            // "grpc" or "http"
	Insecure    bool              // Disable TLS for OTLP (development only)
	Headers     map[string]string // Custom headers for OTLP, e.g., for auth
	LogFile     string            // Path for JSON logs
	LogLevel    string            // "debug", "info", "warn", "error" (default "info")
	Version     string
}

type Shutdown func(context.Context) error

// Init sets up providers, tracer, meter and the bridged logger. With
// telemetry disabled it hands back no-op instruments and a plain file logger.
func Init(cfg Config) (trace.Tracer, metric.Meter, *zap.SugaredLogger, Shutdown, error) {
	if !cfg.Enabled || cfg.Exporter == "none" {
		return initDisabled(cfg)
	}
	ctx := context.Background()

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	exp, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp.trace),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp.metric)),
	)
	otel.SetMeterProvider(mp)

	lp := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exp.log)),
		log.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	var cores []zapcore.Core
	if cfg.LogFile != "" {
		cores = append(cores, logger.FileCore(cfg.LogFile, level))
	}
	cores = append(cores, otelzap.NewCore(
		cfg.ServiceName,
		otelzap.WithLoggerProvider(global.GetLoggerProvider()),
		otelzap.WithVersion(cfg.Version),
	))
	zapLogger := zap.New(zapcore.NewTee(cores...))

	shutdown := func(ctx context.Context) error {
		err := errors.Join(
			tp.Shutdown(ctx),
			lp.Shutdown(ctx),
			mp.Shutdown(ctx),
		)
		_ = zapLogger.Sync()
		return err
	}

	return otel.Tracer(cfg.ServiceName), otel.Meter(cfg.ServiceName), zapLogger.Sugar(), shutdown, nil
}

func initDisabled(cfg Config) (trace.Tracer, metric.Meter, *zap.SugaredLogger, Shutdown, error) {
	sugar, err := logger.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("file logger: %w", err)
	}
	shutdown := func(context.Context) error {
		_ = sugar.Sync()
		return nil
	}
	return tracenoop.NewTracerProvider().Tracer(cfg.ServiceName),
		metricnoop.NewMeterProvider().Meter(cfg.ServiceName),
		sugar,
		shutdown,
		nil
}

type exporters struct {
	trace  sdktrace.SpanExporter
	metric sdkmetric.Exporter
	log    log.Exporter
}

func newExporters(ctx context.Context, cfg Config) (exporters, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdoutExporters()
	case "otlp":
		if cfg.Endpoint == "" {
			return exporters{}, fmt.Errorf("OTLP endpoint required")
		}
		switch cfg.Protocol {
		case "", "grpc":
			return grpcExporters(ctx, cfg)
		case "http":
			return httpExporters(ctx, cfg)
		default:
			return exporters{}, fmt.Errorf("invalid protocol: %s", cfg.Protocol)
		}
	default:
		return exporters{}, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

func stdoutExporters() (exporters, error) {
	var (
		out exporters
		err error
	)
	if out.trace, err = stdouttrace.New(stdouttrace.WithPrettyPrint()); err != nil {
		return exporters{}, err
	}
	if out.metric, err = stdoutmetric.New(stdoutmetric.WithPrettyPrint()); err != nil {
		return exporters{}, err
	}
	if out.log, err = stdoutlog.New(); err != nil {
		return exporters{}, err
	}
	return out, nil
}

func grpcExporters(ctx context.Context, cfg Config) (exporters, error) {
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		traceOpts = append(traceOpts, otlptracegrpc.WithHeaders(cfg.Headers))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithHeaders(cfg.Headers))
		logOpts = append(logOpts, otlploggrpc.WithHeaders(cfg.Headers))
	}

	var (
		out exporters
		err error
	)
	if out.trace, err = otlptrace.New(ctx, otlptracegrpc.NewClient(traceOpts...)); err != nil {
		return exporters{}, err
	}
	if out.metric, err = otlpmetricgrpc.New(ctx, metricOpts...); err != nil {
		return exporters{}, err
	}
	if out.log, err = otlploggrpc.New(ctx, logOpts...); err != nil {
		return exporters{}, err
	}
	return out, nil
}

func httpExporters(ctx context.Context, cfg Config) (exporters, error) {
	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	logOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		logOpts = append(logOpts, otlploghttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(cfg.Headers))
		metricOpts = append(metricOpts, otlpmetrichttp.WithHeaders(cfg.Headers))
		logOpts = append(logOpts, otlploghttp.WithHeaders(cfg.Headers))
	}

	var (
		out exporters
		err error
	)
	if out.trace, err = otlptrace.New(ctx, otlptracehttp.NewClient(traceOpts...)); err != nil {
		return exporters{}, err
	}
	if out.metric, err = otlpmetrichttp.New(ctx, metricOpts...); err != nil {
		return exporters{}, err
	}
	if out.log, err = otlploghttp.New(ctx, logOpts...); err != nil {
		return exporters{}, err
	}
	return out, nil
}
