// Command duniter runs a UCP/DUBP currency node: start the worker and WS2P
// service, bulk-sync from a remote source, inspect the local database, or
// manage keys and profile configuration (§6 CLI surface).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"duniter-go/core"
)

func main() {
	root := &cobra.Command{Use: "duniter", Short: "UCP/DUBP currency node"}
	root.PersistentFlags().String("profile", ".", "profile directory (<profile>/<currency>/...)")

	RegisterStart(root)
	RegisterSync(root)
	RegisterReset(root)
	RegisterDbex(root)
	RegisterKeys(root)
	RegisterModules(root)

	if err := root.Execute(); err != nil {
		code := exitCodeFor(err)
		if code == 4 {
			core.LogFatal(err)
		}
		os.Exit(code)
	}
}

// exitCodeFor maps an error to the process exit code named in §6:
// 0 success; 1 configuration error; 2 I/O or database error; 3 invalid
// argument; 4 fatal internal error.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, core.ErrConfVersionParse), errors.Is(err, core.ErrEnvy), errors.Is(err, core.ErrUnsupportedVersion):
		return 1
	case errors.Is(err, core.ErrDbCorrupted), errors.Is(err, core.ErrDbIoError), errors.Is(err, core.ErrTxConflict):
		return 2
	case errors.Is(err, errInvalidArgument):
		return 3
	default:
		return 4
	}
}

// errInvalidArgument wraps a command's own argument validation failures so
// exitCodeFor can route them to code 3 without importing cobra's usage errors.
var errInvalidArgument = fmt.Errorf("invalid argument")

func invalidArg(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, errInvalidArgument)...)
}
