package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/furnicart/internal/health"
	"github.com/vladislavdragonenkov/furnicart/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/furnicart/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/furnicart/internal/service/grpc"
	"github.com/vladislavdragonenkov/furnicart/internal/version"
)

const (
	gracefulStopTimeout = 5 * time.Second
	readHeaderTimeout   = 5 * time.Second
)

var errKafkaUnavailable = errors.New("kafka brokers configured but producer is not initialized")

// Run поднимает gRPC-сервис корзины и HTTP-сервер проб, блокируется до отмены ctx.
// При отмене возвращает ctx.Err().
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	// Kafka необязательна: без неё корзина работает, события просто не публикуются.
	producer, kafkaErr := initKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
	defer closeKafka(producer, logger)

	cartService := newCartService(cfg, deps, producer, logger)
	grpcServer, grpcHealth := newGRPCServer(cartService, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if len(splitBrokers(cfg.KafkaBrokers)) > 0 {
		healthHandler.RegisterChecker("kafka", healthcheck.NewOptionalChecker("kafka", kafkaCheck(producer, kafkaErr)))
	}
	httpServer := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(httpServer, logger)
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки")
		grpcHealth.Shutdown()
		stopGRPC(grpcServer, logger)
		shutdownHTTP(httpServer, logger)
		return ctx.Err()
	case err := <-serveErr:
		shutdownHTTP(httpServer, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func newCartService(cfg Config, deps *runtimeDependencies, producer *kafka.Producer, logger *log.Entry) *grpcsvc.CartService {
	opts := []grpcsvc.ServiceOption{
		grpcsvc.WithMetrics(metrics.NewCartMetrics()),
		grpcsvc.WithKeyPrefix(cfg.CartKey),
	}
	if producer != nil {
		opts = append(opts, grpcsvc.WithPublisher(producer))
	}
	return grpcsvc.NewCartService(deps.storage, logger.WithField("layer", "grpc"), opts...)
}

// newGRPCServer регистрирует сервис корзины, стандартный health и reflection.
func newGRPCServer(cartService grpcsvc.CartServer, logger *log.Entry) (*grpc.Server, *health.Server) {
	serverMetrics := registerServerMetrics(logger)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(serverMetrics.UnaryServerInterceptor()))

	grpcsvc.RegisterCartServer(server, cartService)
	serverMetrics.InitializeMetrics(server)
	reflection.Register(server)

	grpcHealth := health.NewServer()
	grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcHealth.SetServingStatus(grpcsvc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, grpcHealth)

	return server, grpcHealth
}

// registerServerMetrics переиспользует уже зарегистрированный коллектор,
// если Run вызывается повторно в одном процессе (тесты).
func registerServerMetrics(logger *log.Entry) *promgrpc.ServerMetrics {
	serverMetrics := promgrpc.NewServerMetrics()
	err := prometheus.Register(serverMetrics)
	if err == nil {
		return serverMetrics
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(*promgrpc.ServerMetrics); ok {
			return existing
		}
	}
	logger.WithError(err).Warn("failed to register grpc metrics")
	return serverMetrics
}

// kafkaCheck сообщает о недоступности Kafka, если producer не удалось создать.
func kafkaCheck(producer *kafka.Producer, initErr error) func(context.Context) error {
	return func(context.Context) error {
		switch {
		case producer != nil:
			return nil
		case initErr != nil:
			return initErr
		default:
			return errKafkaUnavailable
		}
	}
}

// stopGRPC даёт активным вызовам завершиться, по таймауту рвёт соединения.
func stopGRPC(server *grpc.Server, logger *log.Entry) {
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(gracefulStopTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

func metricsMux(healthHandler *healthcheck.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// startMetricsServer обслуживает /metrics и пробы до отмены ctx.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsMux(healthHandler),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.WithField("addr", addr).Info("HTTP: /metrics /healthz /livez /readyz")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulStopTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics server shutdown failed")
	}
}
