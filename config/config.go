package config

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagNodeAddress     = "dotnation.node_address"
	flagContractAddress = "dotnation.contract_address"
	flagKeyFile         = "dotnation.key_file"
	flagListenAddress   = "dotnation.listen_address"
	flagDBPath          = "dotnation.db_path"
	flagBatchCeiling    = "dotnation.batch_ceiling"
	flagPacingDelay     = "dotnation.pacing_delay"
	flagFeeCeiling      = "dotnation.fee_ceiling"
	flagPrometheus      = "dotnation.prometheus"
)

// Config stores the node connection, signing and batching configuration.
type Config struct {
	// NodeAddress is the websocket endpoint of the chain node's JSON-RPC API.
	NodeAddress string `mapstructure:"node_address"`
	// ContractAddress is the deployed donation-platform contract.
	ContractAddress string `mapstructure:"contract_address"`
	// KeyFile is the path of the signing key; created on first use.
	KeyFile string `mapstructure:"key_file"`
	// ListenAddress is the HTTP API bind address.
	ListenAddress string `mapstructure:"listen_address"`
	// DBPath is the directory of the local badger store.
	DBPath string `mapstructure:"db_path"`

	// BatchCeiling caps the number of operations encoded into one transaction.
	BatchCeiling int `mapstructure:"batch_ceiling"`
	// PacingDelay is inserted between successive top-level sub-batches.
	PacingDelay time.Duration `mapstructure:"pacing_delay"`
	// FeeCeiling is the per-transaction fee/weight limit passed to the gateway.
	FeeCeiling uint64 `mapstructure:"fee_ceiling"`

	// Prometheus enables the /metrics endpoint.
	Prometheus bool `mapstructure:"prometheus"`
}

// GetViperConfig reads configuration parameters from Viper instance.
func (c *Config) GetViperConfig(v *viper.Viper) error {
	c.NodeAddress = v.GetString(flagNodeAddress)
	c.ContractAddress = v.GetString(flagContractAddress)
	c.KeyFile = v.GetString(flagKeyFile)
	c.ListenAddress = v.GetString(flagListenAddress)
	c.DBPath = v.GetString(flagDBPath)
	c.BatchCeiling = v.GetInt(flagBatchCeiling)
	c.PacingDelay = v.GetDuration(flagPacingDelay)
	c.FeeCeiling = v.GetUint64(flagFeeCeiling)
	c.Prometheus = v.GetBool(flagPrometheus)
	return c.Validate()
}

// Validate rejects configurations the batch engine cannot run with.
func (c *Config) Validate() error {
	if c.BatchCeiling < 1 {
		return fmt.Errorf("batch ceiling must be at least 1, got %d", c.BatchCeiling)
	}
	if c.PacingDelay < 0 {
		return fmt.Errorf("pacing delay must not be negative, got %s", c.PacingDelay)
	}
	return nil
}

// AddFlags adds configuration options to a cobra Command.
func AddFlags(cmd *cobra.Command) {
	def := DefaultConfig

	cmd.Flags().String(flagNodeAddress, def.NodeAddress, "websocket endpoint of the chain node")
	cmd.Flags().String(flagContractAddress, def.ContractAddress, "address of the donation platform contract")
	cmd.Flags().String(flagKeyFile, def.KeyFile, "path of the signing key file")
	cmd.Flags().String(flagListenAddress, def.ListenAddress, "HTTP API listen address")
	cmd.Flags().String(flagDBPath, def.DBPath, "directory of the local store")
	cmd.Flags().Int(flagBatchCeiling, def.BatchCeiling, "maximum operations per transaction")
	cmd.Flags().Duration(flagPacingDelay, def.PacingDelay, "delay between successive sub-batches")
	cmd.Flags().Uint64(flagFeeCeiling, def.FeeCeiling, "per-transaction fee ceiling in plancks")
	cmd.Flags().Bool(flagPrometheus, def.Prometheus, "expose prometheus metrics")
}
