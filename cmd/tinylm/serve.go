package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tinylm/internal/api"
	"github.com/samcharles93/tinylm/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		storeSize   int64
	)

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve forward passes over HTTP",
		Before: setup,
		Flags: commandFlags(
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "store-size",
				Usage:       "forward results kept for GET /v1/forward/:id",
				Value:       api.DefaultStoreCapacity,
				Destination: &storeSize,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			fileCfg := fileConfigFrom(ctx)
			if fileCfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = fileCfg.ServerAddress
			}
			if fileCfg.StoreSize != nil && !cmd.IsSet("store-size") {
				storeSize = *fileCfg.StoreSize
			}

			m, err := buildModel(ctx, cmd)
			if err != nil {
				return err
			}
			server := api.NewServer(m, api.NewForwardStore(int(storeSize)), log)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "model", m.Config().String(), "parameters", m.NumParameters())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
