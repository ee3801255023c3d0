package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/fxamacker/cbor/v2"

	"github.com/ordtools/inscribe/node"
)

// contentTypeFor guesses a MIME content type from a file's extension,
// falling back to a generic binary type when unknown.
func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// loadMetadata reads metadata from either a raw CBOR file or a JSON
// file re-encoded as CBOR. At most one of cborPath/jsonPath may be
// set; the caller has already enforced mutual exclusivity.
func loadMetadata(cborPath, jsonPath string) ([]byte, error) {
	switch {
	case cborPath != "":
		data, err := os.ReadFile(cborPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", cborPath, err)
		}
		return data, nil

	case jsonPath != "":
		raw, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", jsonPath, err)
		}

		var value interface{}
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("parsing %s as JSON: %w", jsonPath, err)
		}

		encoded, err := cbor.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("re-encoding metadata as CBOR: %w", err)
		}
		return encoded, nil

	default:
		return nil, nil
	}
}

// resolveDestination decodes addr if given, or requests a fresh wallet
// address otherwise.
func resolveDestination(addr string, nodeClient node.Client) (btcutil.Address, error) {
	if addr != "" {
		decoded, err := btcutil.DecodeAddress(addr, chainParams)
		if err != nil {
			return nil, fmt.Errorf("invalid --destination: %w", err)
		}
		return decoded, nil
	}

	return nodeClient.GetNewAddress()
}
