package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/go-sod/wknn/internal/buildinfo"
	wknn "github.com/go-sod/wknn/internal/config"
	"github.com/go-sod/wknn/internal/dispatcher"
	"github.com/go-sod/wknn/internal/logging"
	"github.com/go-sod/wknn/internal/metrics"
	"github.com/go-sod/wknn/internal/predict"
	resultDb "github.com/go-sod/wknn/internal/result/database"
	"github.com/go-sod/wknn/internal/rpc"
	"github.com/go-sod/wknn/internal/server"
	"github.com/go-sod/wknn/internal/setup"
	"github.com/go-sod/wknn/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	defer done()

	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := wknn.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	manager, err := env.ProvideDispatcher()()
	if err != nil {
		return fmt.Errorf("dispatcher provider function error: %w", err)
	}

	if err := metrics.Register(); err != nil {
		return fmt.Errorf("metrics.Register: %w", err)
	}
	metricsHandler, err := metrics.NewHandler("wknn")
	if err != nil {
		return fmt.Errorf("metrics.NewHandler: %w", err)
	}

	predictHandler, err := predict.NewHandler(&config.Predict, manager)
	if err != nil {
		return fmt.Errorf("predict.NewHandler: %w", err)
	}

	router := mux.NewRouter()
	router.Handle("/predict", predictHandler).Methods(http.MethodPost)
	router.Handle("/runs/{id}", predict.NewRunsHandler(manager)).Methods(http.MethodGet)
	router.Handle("/health", server.HandleHealth(ctx)).Methods(http.MethodGet)
	router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	regressor, err := rpc.NewServer(manager, rpc.WithMaxSamples(config.Predict.MaxSamples))
	if err != nil {
		return fmt.Errorf("rpc.NewServer: %w", err)
	}
	grpcServer := grpc.NewServer()
	rpc.RegisterRegressorServer(grpcServer, regressor)

	httpSrv, err := server.New(config.SrvAddr, config.MaxConnections)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcSrv, err := server.New(config.GRPCAddr, config.MaxConnections)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	logger.Infof("http listening on %s, grpc listening on %s", httpSrv.Addr(), grpcSrv.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpSrv.ServeHTTPHandler(ctx, router)
	})
	g.Go(func() error {
		return grpcSrv.ServeGRPC(ctx, grpcServer)
	})
	if db := env.Database(); db != nil {
		retention := dispatcher.NewRetention(resultDb.New(db), &config.Database)
		g.Go(func() error {
			return retention.Run(ctx)
		})
	}
	return g.Wait()
}
