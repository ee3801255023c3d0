package main

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// printResult renders v in the format selected by the --format flag.
func printResult(v interface{}) error {
	switch format {
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(out))

	case "json-compact":
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Println(string(out))

	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}

	return nil
}
