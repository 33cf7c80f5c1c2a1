package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"duniter-go/core"
)

func RegisterKeys(root *cobra.Command) {
	keysModifyCmd.AddCommand(keysModifyMemberCmd, keysModifyNetworkCmd)
	keysCmd.AddCommand(keysShowCmd, keysModifyCmd, keysClearCmd, keysWizardCmd)
	root.AddCommand(keysCmd)
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "show, derive or clear the node's member and network keypairs",
}

func keysDir(profile string) string { return filepath.Join(profile, "keys") }

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the currently stored member and network public keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		dir := keysDir(profile)
		for _, kind := range []string{"member", "network"} {
			pk, err := readPubKeyFile(filepath.Join(dir, kind+".pub"))
			if err != nil {
				fmt.Printf("%s: not set\n", kind)
				continue
			}
			fmt.Printf("%s: %s\n", kind, pk)
		}
		return nil
	},
}

var keysModifyCmd = &cobra.Command{
	Use:   "modify",
	Short: "derive a new member or network keypair from a salt/password pair",
}

func newKeysModifyCmd(kind string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind,
		Short: "derive the " + kind + " keypair from --salt/--password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, _ := cmd.Flags().GetString("salt")
			password, _ := cmd.Flags().GetString("password")
			if salt == "" || password == "" {
				return invalidArg("keys modify %s: --salt and --password are required", kind)
			}
			profile, _ := cmd.Flags().GetString("profile")
			_, pub, err := core.KeypairFromSaltPassword(salt, password)
			if err != nil {
				return err
			}
			var pk core.PubKey
			copy(pk[:], pub)
			if err := writePubKeyFile(filepath.Join(keysDir(profile), kind+".pub"), pk); err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", kind, pk)
			return nil
		},
	}
	cmd.Flags().String("salt", "", "key derivation salt")
	cmd.Flags().String("password", "", "key derivation password")
	return cmd
}

var keysModifyMemberCmd = newKeysModifyCmd("member")
var keysModifyNetworkCmd = newKeysModifyCmd("network")

var keysClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "remove stored public keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, _ := cmd.Flags().GetBool("member")
		n, _ := cmd.Flags().GetBool("network")
		all, _ := cmd.Flags().GetBool("all")
		profile, _ := cmd.Flags().GetString("profile")
		dir := keysDir(profile)
		if all || (!m && !n) {
			m, n = true, true
		}
		if m {
			os.Remove(filepath.Join(dir, "member.pub"))
		}
		if n {
			os.Remove(filepath.Join(dir, "network.pub"))
		}
		fmt.Println("keys: cleared")
		return nil
	},
}

func init() {
	keysClearCmd.Flags().BoolP("member", "m", false, "clear the member key only")
	keysClearCmd.Flags().BoolP("network", "n", false, "clear the network key only")
	keysClearCmd.Flags().BoolP("all", "a", false, "clear both keys")
}

var keysWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "generate a fresh random wallet, print its recovery mnemonic, and store its derived keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		wallet, mnemonic, err := core.NewRandomWallet(256)
		if err != nil {
			return err
		}
		fmt.Println("keys: write this recovery phrase down, it will not be shown again:")
		fmt.Println(mnemonic)

		memberPk, err := wallet.NewIdentityKey(0, 0)
		if err != nil {
			return err
		}
		networkPk, err := wallet.NewIdentityKey(1, 0)
		if err != nil {
			return err
		}
		if err := writePubKeyFile(filepath.Join(keysDir(profile), "member.pub"), memberPk); err != nil {
			return err
		}
		if err := writePubKeyFile(filepath.Join(keysDir(profile), "network.pub"), networkPk); err != nil {
			return err
		}
		fmt.Printf("member: %s\nnetwork: %s\n", memberPk, networkPk)

		password, _ := cmd.Flags().GetString("encrypt")
		if password != "" {
			if err := writeEncryptedSeed(filepath.Join(keysDir(profile), "seed.enc"), wallet.Seed(), password); err != nil {
				return err
			}
			fmt.Println("keys: seed encrypted and stored at", filepath.Join(keysDir(profile), "seed.enc"))
		}
		return nil
	},
}

func init() {
	keysWizardCmd.Flags().String("encrypt", "", "also store the seed, sealed with this password, at <profile>/keys/seed.enc")
}

// writeEncryptedSeed seals seed under password using the same scrypt->seed
// derivation as the salt/password key scheme, then XChaCha20-Poly1305.
func writeEncryptedSeed(path string, seed []byte, password string) error {
	key, _, err := core.KeypairFromSaltPassword("duniter-seed-wrap", password)
	if err != nil {
		return err
	}
	blob, err := core.Encrypt(key.Seed(), seed, nil)
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	return nil
}

func writePubKeyFile(path string, pk core.PubKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := os.WriteFile(path, []byte(pk.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	return nil
}

func readPubKeyFile(path string) (core.PubKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.PubKey{}, err
	}
	s := string(raw)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return core.ParsePubKey(s)
}
