package commands

import (
	"fmt"
	"os"

	ipfslog "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/Elactrac/dotnation-sub001/config"
	"github.com/Elactrac/dotnation-sub001/log"
)

func init() {
	registerFlagsRootCmd(RootCmd)
}

func registerFlagsRootCmd(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log_level", "info", "set the log level; options include debug, info, warn and error")
	cmd.PersistentFlags().String("log_format", "plain", "set the log format; options include plain and json")
}

// RootCmd is the root command of the dotnation client.
var RootCmd = &cobra.Command{
	Use:   "dotnation",
	Short: "Batch-submitting client for the donation platform contract",
	Long: `
dotnation talks to a donation platform contract over a chain node's websocket
API. It validates and submits campaign operations in batches, splitting
adaptively when a transaction exceeds the chain's resource limits, and serves
an HTTP API for campaign queries, donations and run reports.
`,
}

// newLogger builds the process logger from the root command's flags.
func newLogger(cmd *cobra.Command) (log.Logger, error) {
	levelStr, err := cmd.Flags().GetString("log_level")
	if err != nil {
		return nil, err
	}
	var level zapcore.Level
	if err := level.Set(levelStr); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	format, err := cmd.Flags().GetString("log_format")
	if err != nil {
		return nil, err
	}
	// keep the go-log subsystem registry (used for per-module loggers) in
	// step with the flag-selected level
	ipfslog.SetAllLoggers(ipfslog.LogLevel(level))
	return log.NewLogger(os.Stdout, level, format == "json"), nil
}

// loadConfig binds the command's flags into viper and decodes the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.DefaultConfig
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return cfg, err
	}
	if err := cfg.GetViperConfig(v); err != nil {
		return cfg, err
	}
	return cfg, nil
}
