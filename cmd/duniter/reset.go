package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"duniter-go/pkg/config"
)

func RegisterReset(root *cobra.Command) { root.AddCommand(resetCmd) }

var resetCmd = &cobra.Command{
	Use:       "reset {data|conf|all}",
	Short:     "wipe local chain data, the profile's conf.json, or both",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"data", "conf", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		return runReset(profile, args[0])
	},
}

func runReset(profile, target string) error {
	cfg, err := config.Load(profile)
	if err != nil {
		return err
	}
	currencyDir := filepath.Join(profile, cfg.Currency)

	switch target {
	case "data":
		return resetData(currencyDir)
	case "conf":
		return resetConf(profile)
	case "all":
		if err := resetData(currencyDir); err != nil {
			return err
		}
		return resetConf(profile)
	default:
		return invalidArg("reset: unknown target %q", target)
	}
}

// resetData removes the currency's blockchain and wot stores (§6 on-disk
// layout), leaving conf.json and the profile directory itself in place.
func resetData(currencyDir string) error {
	if err := os.RemoveAll(filepath.Join(currencyDir, "blockchain")); err != nil {
		return fmt.Errorf("reset: data: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(currencyDir, "wot")); err != nil {
		return fmt.Errorf("reset: data: %w", err)
	}
	fmt.Println("reset: data cleared")
	return nil
}

// resetConf removes the profile's conf.json, so the next start regenerates
// DefaultConfig on first run.
func resetConf(profile string) error {
	path := filepath.Join(profile, "conf.json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset: conf: %w", err)
	}
	fmt.Println("reset: conf cleared")
	return nil
}
