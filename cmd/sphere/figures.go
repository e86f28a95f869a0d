package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-sphere/pkg/client"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func newFiguresCmd(a *app) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Manage figures on a running server",
	}
	cmd.PersistentFlags().StringVarP(&server, "server", "s", "http://localhost:8080", "server URL")

	newClient := func() (*client.Client, error) {
		return client.New(server, client.WithLogger(a.logger))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			list, err := c.ListFigures(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSIZE\tCLIENTS\tTICKS\tAGE")
			for _, f := range list {
				id := f.ID
				if f.Persistent {
					id += " *"
				}
				fmt.Fprintf(w, "%s\t%.0f\t%d\t%d\t%s\n", id, f.Size, f.Clients, f.Stats.Ticks,
					time.Since(f.Created).Round(time.Second))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create [SIZE]",
		Short: "Create a figure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var size float64
			if len(args) == 1 {
				v, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("size: %w", err)
				}
				size = v
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			d, err := c.CreateFigure(cmd.Context(), size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("created"), d.ID)
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("watch it with: sphere watch %s --figure %s", c.BaseURL(), d.ID)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Stop a figure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DeleteFigure(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("deleted"), args[0])
			return nil
		},
	})

	return cmd
}
