package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/fdwmarket/marketd/fdw"
	"github.com/fdwmarket/marketd/internal/config"
	"github.com/fdwmarket/marketd/internal/infrastructure/database"
	"github.com/fdwmarket/marketd/internal/infrastructure/repository"
	"github.com/fdwmarket/marketd/internal/present/rest"
	"github.com/fdwmarket/marketd/internal/present/rest/middleware"
	"github.com/fdwmarket/marketd/internal/service"
	"github.com/fdwmarket/marketd/internal/usecase"
)

func main() {
	configPath := flag.String("c", "/etc/marketd/config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(conf.Server.TraceEndpoint, "marketd")
		if err != nil {
			panic(err)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	accountRepo := repository.NewAccountRepository(db, mc)

	fdwClient := fdw.New(conf.Server.FdwDsn)
	signatureService := service.NewSignatureService()
	signalService := service.NewSignalService(rdb)
	authService := service.NewAuthService(conf.NodeInfo)

	verification := usecase.NewVerificationUsecase(fdwClient)
	elevation := usecase.NewElevationUsecase(signatureService)
	account := usecase.NewAccountUsecase(accountRepo, verification, elevation, signalService, conf.NodeInfo)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(conf.NodeInfo.FQDN))
	}

	authMiddleware := middleware.NewAuthMiddleware(authService, conf.NodeInfo)
	e.Use(authMiddleware.IdentifyRequester)

	handler := rest.NewHandler(conf.NodeInfo, account, signalService)
	handler.RegisterRoutes(e)

	slog.Info("marketd starting", slog.String("fqdn", conf.NodeInfo.FQDN), slog.String("fingerprint", conf.NodeInfo.Fingerprint))

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTraceProvider(endpoint string, serviceName string) (func(), error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", slog.String("error", err.Error()))
		}
	}
	return cleanup, nil
}
