package main

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/changes"
	srv "github.com/regulatech/compliancegpt/internal/server"
	"github.com/regulatech/compliancegpt/internal/telemetry"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var addr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			logger := log.New(log.Writer(), "[SERVER] ", log.LstdFlags)

			st, err := openStore(cfg, nil)
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := buildEngine(ctx, cfg, st)
			if err != nil {
				return err
			}

			sessions, err := newSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer sessions.Close()

			var metrics *telemetry.Metrics
			if cfg.Telemetry.Enabled {
				metrics = telemetry.New(prometheus.DefaultRegisterer)
			}

			server := &srv.Server{
				Config:   cfg,
				Engine:   engine,
				Store:    st,
				Sessions: sessions,
				Detector: changes.NewDetector(0.8, nil),
				Metrics:  metrics,
				Logger:   logger,
			}
			if cfg.Server.JWTSecret != "" {
				server.JWTSecret = []byte(cfg.Server.JWTSecret)
			}

			if addr == "" {
				addr = cfg.Server.Address
			}
			return server.Run(addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return serve
}
