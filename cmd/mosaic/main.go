// Command mosaic serves the applications of a manifest composed from the
// built-in modules.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/modules/cache"
	"github.com/dmitrymomot/mosaic/modules/cors"
	"github.com/dmitrymomot/mosaic/modules/cron"
	"github.com/dmitrymomot/mosaic/modules/postgres"
	"github.com/dmitrymomot/mosaic/modules/requestid"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd(builtins()...).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mosaic: %s\n", err)
		os.Exit(1)
	}
}

// builtins are the modules every manifest may reference.
func builtins() []mosaic.Module {
	return []mosaic.Module{
		requestid.Module,
		cors.Module,
		cache.Module,
		postgres.Module,
		cron.Module,
	}
}

func newRootCmd(modules ...mosaic.Module) *cobra.Command {
	root := &cobra.Command{
		Use:           "mosaic",
		Short:         "Multi-tenant application server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		serveCmd(modules),
		routesCmd(modules),
		versionCmd(),
	)
	return root
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, figure.NewFigure("mosaic", "", true).String())
}

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}
			printBanner(out)
			fmt.Fprintf(out, "  Version:    %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version")
	return cmd
}
