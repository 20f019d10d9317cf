package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Elactrac/dotnation-sub001/batch"
	"github.com/Elactrac/dotnation-sub001/config"
	"github.com/Elactrac/dotnation-sub001/gateway/wsrpc"
	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/types"
)

// operationsFile is the on-disk input of the submit command. Exactly one of
// the two lists must be present; kinds are never mixed in one run.
type operationsFile struct {
	Campaigns   []types.CreateCampaign `json:"campaigns"`
	Withdrawals []uint32               `json:"withdrawals"`
}

// NewSubmitCmd returns the command that submits one batch run from a file and
// waits for the outcome.
func NewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <operations.json>",
		Short: "Submit a batch of operations and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reqs, err := readOperations(args[0])
			if err != nil {
				return err
			}

			s, err := signer.LoadOrGenFileSigner(cfg.KeyFile)
			if err != nil {
				return err
			}

			dialCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			gw, err := wsrpc.Dial(dialCtx, cfg.NodeAddress, cfg.ContractAddress, logger.With("module", "gateway"))
			cancel()
			if err != nil {
				return err
			}
			defer gw.Close()

			orch, err := batch.NewOrchestrator(batch.Config{
				Ceiling:     cfg.BatchCeiling,
				PacingDelay: cfg.PacingDelay,
				FeeCeiling:  cfg.FeeCeiling,
			}, gw, s, logger, nil)
			if err != nil {
				return err
			}

			go func() {
				for snap := range orch.Progress().Subscribe() {
					if snap.Total > 0 {
						fmt.Fprintf(os.Stderr, "progress: %d/%d\n", snap.Current, snap.Total)
					}
				}
			}()

			result, err := orch.Run(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	config.AddFlags(cmd)
	return cmd
}

func readOperations(path string) ([]types.OperationRequest, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file operationsFile
	if err := json.Unmarshal(blob, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Campaigns) > 0 && len(file.Withdrawals) > 0 {
		return nil, fmt.Errorf("%s mixes campaign creations and withdrawals, submit them separately", path)
	}

	var reqs []types.OperationRequest
	for _, c := range file.Campaigns {
		reqs = append(reqs, c)
	}
	for _, id := range file.Withdrawals {
		reqs = append(reqs, types.WithdrawFunds{CampaignID: id})
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%s contains no operations", path)
	}
	return reqs, nil
}
