package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Elactrac/dotnation-sub001/batch"
	"github.com/Elactrac/dotnation-sub001/config"
	"github.com/Elactrac/dotnation-sub001/gateway/wsrpc"
	"github.com/Elactrac/dotnation-sub001/log"
	"github.com/Elactrac/dotnation-sub001/server"
	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/store"
)

// NewStartCmd returns the command that runs the client as a long-lived service.
func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"serve", "run"},
		Short:   "Run the dotnation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			s, err := signer.LoadOrGenFileSigner(cfg.KeyFile)
			if err != nil {
				return err
			}
			addr, err := s.Address()
			if err != nil {
				return err
			}
			logger.Info("signing session ready", "address", addr)

			kv, err := store.NewKVStore(cfg.DBPath)
			if err != nil {
				return err
			}
			rs := store.NewRunStore(kv)
			defer func() {
				if err := rs.Close(); err != nil {
					logger.Error("error while closing store", "error", err)
				}
			}()

			dialCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			gw, err := wsrpc.Dial(dialCtx, cfg.NodeAddress, cfg.ContractAddress, log.NewNamed("gateway"))
			cancel()
			if err != nil {
				return err
			}
			defer func() {
				if err := gw.Close(); err != nil {
					logger.Error("error while closing gateway", "error", err)
				}
			}()

			var metrics *batch.Metrics
			if cfg.Prometheus {
				metrics = batch.PrometheusMetrics("dotnation")
			}
			orch, err := batch.NewOrchestrator(batch.Config{
				Ceiling:     cfg.BatchCeiling,
				PacingDelay: cfg.PacingDelay,
				FeeCeiling:  cfg.FeeCeiling,
			}, gw, s, log.NewNamed("batch"), metrics)
			if err != nil {
				return err
			}

			srv := server.NewServer(cfg, orch, gw, rs, s, log.NewNamed("server"))
			if err := srv.Start(); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				logger.Info("shutting down", "signal", sig.String())
			case <-cmd.Context().Done():
			}

			srv.Stop()
			return nil
		},
	}
	config.AddFlags(cmd)
	return cmd
}
