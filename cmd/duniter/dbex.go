package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"duniter-go/core"
	"duniter-go/pkg/config"
)

func RegisterDbex(root *cobra.Command) {
	dbexCmd.AddCommand(dbexBalanceCmd, dbexDistanceCmd, dbexForksCmd, dbexMemberCmd, dbexMembersCmd)
	root.AddCommand(dbexCmd)
}

var dbexCmd = &cobra.Command{
	Use:   "dbex",
	Short: "inspect the local database (balance, distance, forks, member, members)",
}

// openChainState loads the profile's config and opens its store for one-shot
// inspection, mirroring runStart's bootstrap without spinning up a worker or
// WS2P service. The store is opened read-write as in runStart, so opening a
// store with no currency-params checkpoint writes one; the dbex subcommands
// themselves only read.
func openChainState(profile string) (*core.ChainState, error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, err
	}
	currencyDir := filepath.Join(profile, cfg.Currency)
	if err := core.InitStore(filepath.Join(currencyDir, "blockchain", "wal.log")); err != nil {
		return nil, fmt.Errorf("dbex: %w", err)
	}
	core.NewBlockchainStore(core.CurrentStore())
	if err := core.InitChainState(core.CurrentStore(), core.DefaultRuleSet(), cfg.Currency); err != nil {
		return nil, fmt.Errorf("dbex: %w", err)
	}
	return core.CurrentChainState(), nil
}

var dbexBalanceCmd = &cobra.Command{
	Use:   "balance <pubkey>",
	Short: "sum the unconsumed sources locked to a public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		cs, err := openChainState(profile)
		if err != nil {
			return err
		}
		pk, err := core.ParsePubKey(args[0])
		if err != nil {
			return invalidArg("dbex balance: %v", err)
		}
		condition := fmt.Sprintf("SIG(%s)", pk)
		var total uint64
		for _, id := range cs.SIdx.Keys() {
			st := cs.SIdx.State(id)
			if !st.Consumed && st.Conditions == condition {
				total += st.EffectiveValue()
			}
		}
		fmt.Printf("%s: %d\n", pk, total)
		return nil
	},
}

var dbexDistanceCmd = &cobra.Command{
	Use:   "distance <pubkey>",
	Short: "check whether a member satisfies the WoT distance rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		cs, err := openChainState(profile)
		if err != nil {
			return err
		}
		pk, err := core.ParsePubKey(args[0])
		if err != nil {
			return invalidArg("dbex distance: %v", err)
		}
		id, ok := cs.Wot.Lookup(pk)
		if !ok {
			return invalidArg("dbex distance: %s is not a known identity", pk)
		}
		ok = cs.Wot.DistanceOK(id, int(cs.Params.StepMax), cs.Params.XPercent)
		fmt.Printf("%s: distance ok = %v\n", pk, ok)
		return nil
	},
}

var dbexForksCmd = &cobra.Command{
	Use:   "forks",
	Short: "show the local main-branch tip (fork branches exist only in a running node's worker)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		cs, err := openChainState(profile)
		if err != nil {
			return err
		}
		fmt.Printf("main tip: %s\n", cs.Current)
		return nil
	},
}

var dbexMemberCmd = &cobra.Command{
	Use:   "member <pubkey>",
	Short: "show one identity's reduced IINDEX state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		cs, err := openChainState(profile)
		if err != nil {
			return err
		}
		pk, err := core.ParsePubKey(args[0])
		if err != nil {
			return invalidArg("dbex member: %v", err)
		}
		st, ok := cs.Identity(pk)
		if !ok {
			return invalidArg("dbex member: %s has no recorded identity", pk)
		}
		fmt.Printf("%s: uid=%s member=%v kick=%v created_on=%s\n", pk, st.Username, st.Member, st.Kick, st.CreatedOn)
		return nil
	},
}

var dbexMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "list every currently active member",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		cs, err := openChainState(profile)
		if err != nil {
			return err
		}
		var uids []string
		for _, pk := range cs.IIdx.Keys() {
			st := cs.IIdx.State(pk)
			if st.WasMember() {
				uids = append(uids, fmt.Sprintf("%s\t%s", pk, st.Username))
			}
		}
		sort.Strings(uids)
		for _, line := range uids {
			fmt.Println(line)
		}
		return nil
	},
}
