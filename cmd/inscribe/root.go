package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btclog/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/spf13/cobra"

	"github.com/ordtools/inscribe/node"
	"github.com/ordtools/inscribe/store"
)

const (
	envPrefix       = "ORD_"
	defaultDataFile = "inscription.db"
)

var (
	testnet bool
	regtest bool
	format  string

	rpcHost string
	rpcUser string
	rpcPass string
	dataFile string

	chainParams = &chaincfg.MainNetParams

	logger = btclog.NewSLogger(btclog.NewDefaultHandler(os.Stdout))
	log    = logger.SubSystem("INSC")

	// env holds every ORD_-prefixed environment variable, lifted at
	// startup into a flat configuration map (§6).
	env = map[string]string{}
)

var rootCmd = &cobra.Command{
	Use:   "inscribe",
	Short: "Constructs and broadcasts Ordinals commit/reveal transactions",
	Long: `inscribe builds Taproot commit/reveal transaction pairs that
carry an Ordinals inscription envelope, following the two-phase
prepare-commit/reveal flow or the single-phase legacy flow.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case testnet:
			chainParams = &chaincfg.TestNet3Params
		case regtest:
			chainParams = &chaincfg.RegressionNetParams
		default:
			chainParams = &chaincfg.MainNetParams
		}

		loadEnv()
	},
	DisableAutoGenTag: true,
}

func init() {
	logger.SetLevel(btclog.LevelInfo)

	rootCmd.PersistentFlags().BoolVarP(
		&testnet, "testnet", "t", false,
		"use testnet3 chain parameters",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&regtest, "regtest", "r", false,
		"use regtest chain parameters",
	)
	rootCmd.PersistentFlags().StringVar(
		&format, "format", "json",
		"output format: json, json-compact, or yaml",
	)
	rootCmd.PersistentFlags().StringVar(
		&rpcHost, "rpc-host", "127.0.0.1:8332",
		"bitcoind RPC host:port",
	)
	rootCmd.PersistentFlags().StringVar(
		&rpcUser, "rpc-user", "", "bitcoind RPC username",
	)
	rootCmd.PersistentFlags().StringVar(
		&rpcPass, "rpc-pass", "", "bitcoind RPC password",
	)
	rootCmd.PersistentFlags().StringVar(
		&dataFile, "datadir", defaultDataFile,
		"path to the reveal-state database file",
	)

	rootCmd.AddCommand(
		newCreateTRCommand(),
		newInscribeWithTxidCommand(),
		newInscribeCommand(),
	)
}

// loadEnv lifts every ORD_-prefixed environment variable into env,
// keyed without the prefix (§6).
func loadEnv() {
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, envPrefix) {
			continue
		}
		env[strings.TrimPrefix(k, envPrefix)] = v
	}
}

func openStore() (*store.Store, error) {
	return store.Open(dataFile)
}

func dialNode() (node.Client, error) {
	if rpcUser == "" {
		return nil, fmt.Errorf("--rpc-user is required to reach the " +
			"bitcoin node")
	}

	return node.NewRPCClient(&rpcclient.ConnConfig{
		Host:         rpcHost,
		User:         rpcUser,
		Pass:         rpcPass,
		HTTPPostMode: true,
		DisableTLS:   true,
	})
}
