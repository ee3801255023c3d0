package main

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/spf13/cobra"

	"github.com/ordtools/inscribe/batch"
)

type inscribeWithTxidCommand struct {
	TaprootAddress   string
	SignedCommitTxid string
	Destination      string
	Postage          int64
	RevealFeeRate    int64

	cmd *cobra.Command
}

func newInscribeWithTxidCommand() *cobra.Command {
	cc := &inscribeWithTxidCommand{}
	cc.cmd = &cobra.Command{
		Use:   "inscribe-with-txid",
		Short: "Complete a prepared commit by signing and broadcasting the reveal (phase 2)",
		RunE:  cc.execute,
	}

	cc.cmd.Flags().StringVar(&cc.TaprootAddress, "taproot-address", "", "commit address returned by create-tr")
	cc.cmd.Flags().StringVar(&cc.SignedCommitTxid, "signed-commit-txid", "", "txid of the broadcast commit transaction")
	cc.cmd.Flags().StringVar(&cc.Destination, "destination", "", "reveal destination override")
	cc.cmd.Flags().Int64Var(&cc.Postage, "postage", int64(batch.TargetPostage), "reveal output postage override")
	cc.cmd.Flags().Int64Var(&cc.RevealFeeRate, "reveal-fee-rate", 1, "reveal fee rate in sat/vbyte")

	_ = cc.cmd.MarkFlagRequired("taproot-address")
	_ = cc.cmd.MarkFlagRequired("signed-commit-txid")

	return cc.cmd
}

func (c *inscribeWithTxidCommand) execute(_ *cobra.Command, _ []string) error {
	txid, err := chainhash.NewHashFromStr(c.SignedCommitTxid)
	if err != nil {
		return fmt.Errorf("invalid --signed-commit-txid: %w", err)
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

	state, err := db.Get(c.TaprootAddress)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("no pending reveal for address %s", c.TaprootAddress)
	}

	destination, err := resolveDestination(c.Destination, nodeClient)
	if err != nil {
		return err
	}

	destinations := make([]btcutil.Address, len(state.Inscriptions))
	postages := make([]btcutil.Amount, len(state.Inscriptions))
	for i := range state.Inscriptions {
		destinations[i] = destination
		postages[i] = btcutil.Amount(c.Postage)
	}

	plan := &batch.Plan{
		CommitFeeRate: 1,
		RevealFeeRate: btcutil.Amount(c.RevealFeeRate),
		Destinations:  destinations,
		Inscriptions:  state.Inscriptions,
		Postages:      postages,
		Mode:          batch.SeparateOutputs,
	}

	orchestrator := &batch.Orchestrator{
		Net:   chainParams,
		Node:  nodeClient,
		Store: db,
	}

	result, err := orchestrator.Reveal(plan, c.TaprootAddress, *txid)
	if err != nil {
		return err
	}

	return printResult(result)
}
