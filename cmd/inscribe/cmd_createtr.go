package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/cobra"

	"github.com/ordtools/inscribe/batch"
	"github.com/ordtools/inscribe/inscription"
)

type createTRCommand struct {
	File          string
	Number        int
	CBORMetadata  string
	JSONMetadata  string
	Metaprotocol  string
	Parent        string
	Delegate      string
	CommitFeeRate int64
	RevealFeeRate int64
	Postage       int64
	Destination   string

	cmd *cobra.Command
}

func newCreateTRCommand() *cobra.Command {
	cc := &createTRCommand{}
	cc.cmd = &cobra.Command{
		Use:   "create-tr",
		Short: "Prepare one or more commit transactions (phase 1)",
		Long: `create-tr builds the commit address and reveal state for
one or more inscriptions, persists the reveal state, and prints the
commit addresses and required funding values as JSON. It does not
fund or broadcast anything; that is the caller's responsibility.`,
		RunE: cc.execute,
	}

	cc.cmd.Flags().StringVar(&cc.File, "file", "", "path to the inscription content file")
	cc.cmd.Flags().IntVar(&cc.Number, "number", 1, "number of commits to prepare")
	cc.cmd.Flags().StringVar(&cc.CBORMetadata, "cbor-metadata", "", "path to CBOR-encoded metadata")
	cc.cmd.Flags().StringVar(&cc.JSONMetadata, "json-metadata", "", "path to JSON metadata (re-encoded as CBOR)")
	cc.cmd.Flags().StringVar(&cc.Metaprotocol, "metaprotocol", "", "metaprotocol tag")
	cc.cmd.Flags().StringVar(&cc.Parent, "parent", "", "parent inscription id")
	cc.cmd.Flags().StringVar(&cc.Delegate, "delegate", "", "delegate inscription id")
	cc.cmd.Flags().Int64Var(&cc.CommitFeeRate, "commit-fee-rate", 1, "commit fee rate in sat/vbyte")
	cc.cmd.Flags().Int64Var(&cc.RevealFeeRate, "reveal-fee-rate", 1, "reveal fee rate in sat/vbyte")
	cc.cmd.Flags().Int64Var(&cc.Postage, "postage", int64(batch.TargetPostage), "reveal output postage in satoshis")
	cc.cmd.Flags().StringVar(&cc.Destination, "destination", "", "reveal destination address; defaults to a fresh wallet address")

	return cc.cmd
}

type createTROutput struct {
	CommitAddress string `json:"commit_address" yaml:"commit_address"`
	TargetValue   int64  `json:"target_value" yaml:"target_value"`
}

func (c *createTRCommand) execute(_ *cobra.Command, _ []string) error {
	if c.CBORMetadata != "" && c.JSONMetadata != "" {
		return fmt.Errorf("--cbor-metadata and --json-metadata are mutually exclusive")
	}
	if c.File == "" && c.Delegate == "" {
		return fmt.Errorf("at least one of --file and --delegate is required")
	}

	opts, err := c.inscriptionOptions()
	if err != nil {
		return err
	}

	var body []byte
	contentType := ""
	if c.File != "" {
		body, err = os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("reading %s: %w", c.File, err)
		}
		contentType = contentTypeFor(c.File)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	nodeClient, err := dialNode()
	if err != nil {
		return err
	}

	destination, err := resolveDestination(c.Destination, nodeClient)
	if err != nil {
		return err
	}

	orchestrator := &batch.Orchestrator{
		Net:   chainParams,
		Node:  nodeClient,
		Store: db,
	}

	results := make([]createTROutput, 0, c.Number)
	for i := 0; i < c.Number; i++ {
		ins := inscription.New(contentType, body, opts...)

		plan := &batch.Plan{
			CommitFeeRate: btcutil.Amount(c.CommitFeeRate),
			RevealFeeRate: btcutil.Amount(c.RevealFeeRate),
			Destinations:  []btcutil.Address{destination},
			Inscriptions:  []*inscription.Inscription{ins},
			Postages:      []btcutil.Amount{btcutil.Amount(c.Postage)},
			Mode:          batch.SeparateOutputs,
		}

		addr, target, err := orchestrator.PrepareCommit(plan)
		if err != nil {
			return err
		}

		results = append(results, createTROutput{
			CommitAddress: addr,
			TargetValue:   int64(target),
		})
	}

	return printResult(results)
}

func (c *createTRCommand) inscriptionOptions() ([]inscription.Option, error) {
	var opts []inscription.Option

	if c.Metaprotocol != "" {
		opts = append(opts, inscription.WithMetaprotocol(c.Metaprotocol))
	}

	if c.Parent != "" {
		parent, err := inscription.ParseId(c.Parent)
		if err != nil {
			return nil, fmt.Errorf("invalid --parent: %w", err)
		}
		opts = append(opts, inscription.WithParents(parent))
	}

	if c.Delegate != "" {
		delegate, err := inscription.ParseId(c.Delegate)
		if err != nil {
			return nil, fmt.Errorf("invalid --delegate: %w", err)
		}
		opts = append(opts, inscription.WithDelegate(delegate))
	}

	metadata, err := loadMetadata(c.CBORMetadata, c.JSONMetadata)
	if err != nil {
		return nil, err
	}
	if metadata != nil {
		opts = append(opts, inscription.WithMetadata(metadata))
	}

	return opts, nil
}
