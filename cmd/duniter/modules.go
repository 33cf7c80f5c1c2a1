package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"duniter-go/pkg/config"
)

func RegisterModules(root *cobra.Command) {
	root.AddCommand(enableCmd, disableCmd, modulesCmd)
}

var enableCmd = &cobra.Command{
	Use:   "enable <module>",
	Short: "enable an optional module for this profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		return setModuleState(profile, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <module>",
	Short: "disable an optional module for this profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		return setModuleState(profile, args[0], false)
	},
}

func setModuleState(profile, module string, enable bool) error {
	cfg, err := config.Load(profile)
	if err != nil {
		return err
	}
	cfg.Modules.Enabled = removeString(cfg.Modules.Enabled, module)
	cfg.Modules.Disabled = removeString(cfg.Modules.Disabled, module)
	if enable {
		cfg.Modules.Enabled = append(cfg.Modules.Enabled, module)
	} else {
		cfg.Modules.Disabled = append(cfg.Modules.Disabled, module)
	}
	if err := config.Save(profile, cfg); err != nil {
		return err
	}
	verb := "enabled"
	if !enable {
		verb = "disabled"
	}
	fmt.Printf("module %q %s\n", module, verb)
	return nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "list modules, filtered by -d/-e/-n/-s",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		cfg, err := config.Load(profile)
		if err != nil {
			return err
		}
		disabledOnly, _ := cmd.Flags().GetBool("disabled")
		enabledOnly, _ := cmd.Flags().GetBool("enabled")
		namesOnly, _ := cmd.Flags().GetBool("names")
		short, _ := cmd.Flags().GetBool("short")

		print := func(state, name string) {
			switch {
			case namesOnly:
				fmt.Println(name)
			case short:
				fmt.Printf("%s:%s ", state, name)
			default:
				fmt.Printf("%s\t%s\n", state, name)
			}
		}

		if !disabledOnly {
			for _, m := range cfg.Modules.Enabled {
				print("enabled", m)
			}
		}
		if !enabledOnly {
			for _, m := range cfg.Modules.Disabled {
				print("disabled", m)
			}
		}
		if short {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	modulesCmd.Flags().BoolP("disabled", "d", false, "list disabled modules only")
	modulesCmd.Flags().BoolP("enabled", "e", false, "list enabled modules only")
	modulesCmd.Flags().BoolP("names", "n", false, "print module names only")
	modulesCmd.Flags().BoolP("short", "s", false, "compact single-line listing")
}
