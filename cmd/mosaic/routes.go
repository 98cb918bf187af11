package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/pkg/logger"
)

func routesCmd(modules []mosaic.Module) *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the composed route table of every application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			l, err := flags.load(ctx, logger.NewNope(), modules)
			if err != nil {
				return err
			}
			defer func() { _ = l.shutdown(context.Background()) }()

			return printRoutes(cmd.OutOrStdout(), l.apps)
		},
	}
	flags.register(cmd)
	return cmd
}

func printRoutes(w io.Writer, apps []*mosaic.App) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, app := range apps {
		fmt.Fprintf(tw, "%s\t%s\n", app.Name(), strings.Join(app.Hosts(), ", "))
		for _, e := range app.Modules().RootFirst() {
			fmt.Fprintf(tw, "  module\t%s\n", e.Config.ModuleName)
		}
		for _, r := range app.Routes() {
			fmt.Fprintf(tw, "  route\t%s\n", r)
		}
		for _, p := range app.WSPaths() {
			fmt.Fprintf(tw, "  ws\t%s\n", p)
		}
	}
	return tw.Flush()
}
