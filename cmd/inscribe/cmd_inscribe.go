package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/cobra"

	"github.com/ordtools/inscribe/batch"
	"github.com/ordtools/inscribe/inscription"
)

type inscribeCommand struct {
	File         string
	FeeRate      int64
	Destination  string
	Sat          int64
	Satpoint     string
	Postage      int64
	Reinscribe   bool
	Parent       string
	Delegate     string
	Metaprotocol string
	CBORMetadata string
	JSONMetadata string
	NoBackup     bool
	NoLimit      bool
	DryRun       bool

	cmd *cobra.Command
}

func newInscribeCommand() *cobra.Command {
	cc := &inscribeCommand{}
	cc.cmd = &cobra.Command{
		Use:   "inscribe",
		Short: "Construct, sign and broadcast a commit/reveal pair (single-phase)",
		RunE:  cc.execute,
	}

	cc.cmd.Flags().StringVar(&cc.File, "file", "", "path to the inscription content file")
	cc.cmd.Flags().Int64Var(&cc.FeeRate, "fee-rate", 1, "fee rate in sat/vbyte, used for both commit and reveal")
	cc.cmd.Flags().StringVar(&cc.Destination, "destination", "", "reveal destination address")
	cc.cmd.Flags().Int64Var(&cc.Sat, "sat", -1, "specific satoshi to inscribe")
	cc.cmd.Flags().StringVar(&cc.Satpoint, "satpoint", "", "specific satpoint to inscribe")
	cc.cmd.Flags().Int64Var(&cc.Postage, "postage", int64(batch.TargetPostage), "reveal output postage")
	cc.cmd.Flags().BoolVar(&cc.Reinscribe, "reinscribe", false, "allow inscribing over an existing inscription")
	cc.cmd.Flags().StringVar(&cc.Parent, "parent", "", "parent inscription id")
	cc.cmd.Flags().StringVar(&cc.Delegate, "delegate", "", "delegate inscription id")
	cc.cmd.Flags().StringVar(&cc.Metaprotocol, "metaprotocol", "", "metaprotocol tag")
	cc.cmd.Flags().StringVar(&cc.CBORMetadata, "cbor-metadata", "", "path to CBOR-encoded metadata")
	cc.cmd.Flags().StringVar(&cc.JSONMetadata, "json-metadata", "", "path to JSON metadata (re-encoded as CBOR)")
	cc.cmd.Flags().BoolVar(&cc.NoBackup, "no-backup", false, "skip backing up the commit recovery key")
	cc.cmd.Flags().BoolVar(&cc.NoLimit, "no-limit", false, "skip the runestone size limit (the standard weight limit still applies)")
	cc.cmd.Flags().BoolVar(&cc.DryRun, "dry-run", false, "build PSBTs without broadcasting")

	return cc.cmd
}

func (c *inscribeCommand) execute(_ *cobra.Command, _ []string) error {
	if c.Sat >= 0 && c.Satpoint != "" {
		return fmt.Errorf("--sat and --satpoint are mutually exclusive")
	}
	if c.Sat >= 0 {
		return fmt.Errorf("--sat requires a satoshi index this core " +
			"does not maintain; use --satpoint with an explicit outpoint instead")
	}
	if c.File == "" && c.Delegate == "" {
		return fmt.Errorf("at least one of --file and --delegate is required")
	}
	if c.CBORMetadata != "" && c.JSONMetadata != "" {
		return fmt.Errorf("--cbor-metadata and --json-metadata are mutually exclusive")
	}

	var opts []inscription.Option
	if c.Metaprotocol != "" {
		opts = append(opts, inscription.WithMetaprotocol(c.Metaprotocol))
	}
	if c.Parent != "" {
		parent, err := inscription.ParseId(c.Parent)
		if err != nil {
			return fmt.Errorf("invalid --parent: %w", err)
		}
		opts = append(opts, inscription.WithParents(parent))
	}
	if c.Delegate != "" {
		delegate, err := inscription.ParseId(c.Delegate)
		if err != nil {
			return fmt.Errorf("invalid --delegate: %w", err)
		}
		opts = append(opts, inscription.WithDelegate(delegate))
	}

	metadata, err := loadMetadata(c.CBORMetadata, c.JSONMetadata)
	if err != nil {
		return err
	}
	if metadata != nil {
		opts = append(opts, inscription.WithMetadata(metadata))
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

	ins := inscription.New(contentType, body, opts...)

	var satpoint *inscription.SatPoint
	if c.Satpoint != "" {
		parsed, err := inscription.ParseSatPoint(c.Satpoint)
		if err != nil {
			return fmt.Errorf("invalid --satpoint: %w", err)
		}
		satpoint = &parsed
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

	plan := &batch.Plan{
		CommitFeeRate: btcutil.Amount(c.FeeRate),
		RevealFeeRate: btcutil.Amount(c.FeeRate),
		Destinations:  []btcutil.Address{destination},
		Inscriptions:  []*inscription.Inscription{ins},
		Postages:      []btcutil.Amount{btcutil.Amount(c.Postage)},
		Mode:          batch.SeparateOutputs,
		Satpoint:      satpoint,
		Reinscribe:    c.Reinscribe,
		NoBackup:      c.NoBackup,
		NoLimit:       c.NoLimit,
		DryRun:        c.DryRun,
	}

	orchestrator := &batch.Orchestrator{
		Net:     chainParams,
		Node:    nodeClient,
		Store:   db,
		Builder: &walletFundedTxBuilder{node: nodeClient},
	}

	var result *batch.Result
	if c.DryRun {
		result, err = orchestrator.DryRun(plan)
	} else {
		result, err = orchestrator.SinglePhase(plan)
	}
	if err != nil {
		return err
	}

	return printResult(result)
}
