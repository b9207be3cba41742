package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nanasync/nanasync-api/internal/platform/config"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server は HTTP サーバーと gRPC ヘルスサーバーのライフサイクルを管理します。
// HealthAddr が空の場合 gRPC サーバーは起動しません。
type Server struct {
	httpAddr   string
	healthAddr string
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
}

// New は設定に従ってサーバーを構築します。ヘルス状態は NOT_SERVING で始まります。
func New(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		httpAddr:   cfg.ListenAddr,
		healthAddr: cfg.HealthAddr,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		health: health.NewServer(),
		logger: logger.Named("server"),
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	if cfg.HealthAddr != "" {
		s.grpcServer = grpc.NewServer(opts...)
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
	}

	return s
}

// SetServing はヘルスチェックの状態を切り替えます。
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Run は待ち受けを開始し、コンテキストがキャンセルされるまでブロックします。
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}

	var grpcLis net.Listener
	if s.grpcServer != nil {
		grpcLis, err = net.Listen("tcp", s.healthAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen on %s: %w", s.healthAddr, err)
		}
	}

	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve は与えられたリスナーで待ち受けます。コンテキストがキャンセルされると
// ヘルス状態を NOT_SERVING にし、HTTP を最大 shutdownTimeout 待って停止、gRPC を GracefulStop します。
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", httpLis.Addr().String()))
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	if s.grpcServer != nil && grpcLis != nil {
		g.Go(func() error {
			s.logger.Info("gRPC health server listening", zap.String("addr", grpcLis.Addr().String()))
			if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve gRPC: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := s.httpServer.Shutdown(shutdownCtx)
		if s.grpcServer != nil {
			s.grpcServer.GracefulStop()
		}
		if err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		s.logger.Info("servers stopped")
		return nil
	})

	return g.Wait()
}
