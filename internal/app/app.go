package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Totarae/relay/internal/config"
	"github.com/Totarae/relay/internal/downstream"
	grpcv1 "github.com/Totarae/relay/internal/grpc/v1"
	"github.com/Totarae/relay/internal/handlers"
	"github.com/Totarae/relay/internal/metrics"
	"github.com/Totarae/relay/internal/relay"
	"github.com/Totarae/relay/internal/router"
)

// App связывает компоненты релея и управляет жизненным циклом серверов.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	relayMetrics := metrics.NewRelayMetrics(registry)
	if err := relayMetrics.Register(); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	forwarder := downstream.NewHTTPForwarder(cfg.DownstreamURL, cfg.DownstreamTimeout, logger)
	service := relay.NewRelayService(forwarder, logger, relayMetrics)
	handler := handlers.NewHandler(service, logger)

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{DisableCompression: true})
	a := &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.ServerAddress,
			Handler:           router.NewRouter(handler, logger, metricsHandler, cfg.MaxBodySize),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if cfg.GRPCAddress != "" {
		a.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(grpcv1.LoggingInterceptor(logger)))
		grpcv1.RegisterRelayServiceServer(a.grpcServer, grpcv1.NewGRPCServer(service))
	}
	return a, nil
}

// Handler возвращает HTTP-обработчик приложения.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run запускает серверы и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	httpLn, err := net.Listen("tcp", a.cfg.ServerAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ServerAddress, err)
	}

	var grpcLn net.Listener
	if a.grpcServer != nil {
		grpcLn, err = net.Listen("tcp", a.cfg.GRPCAddress)
		if err != nil {
			httpLn.Close()
			return fmt.Errorf("listen %s: %w", a.cfg.GRPCAddress, err)
		}
	}

	return a.Serve(ctx, httpLn, grpcLn)
}

// Serve обслуживает переданные слушатели. grpcLn может быть nil.
func (a *App) Serve(ctx context.Context, httpLn, grpcLn net.Listener) error {
	errCh := make(chan error, 2)

	a.logger.Info("Сервер запущен",
		zap.String("address", httpLn.Addr().String()),
		zap.String("downstream", a.cfg.DownstreamURL),
	)
	go func() {
		if err := a.httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.grpcServer != nil && grpcLn != nil {
		a.logger.Info("gRPC сервер запущен", zap.String("address", grpcLn.Addr().String()))
		go func() {
			if err := a.grpcServer.Serve(grpcLn); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	a.logger.Info("Остановка сервера")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	return runErr
}
