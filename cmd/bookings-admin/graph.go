package main

import (
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
)

func newGraphCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the booking transition graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter model.Role
			if role != "" {
				parsed, err := parseRoleFlag(role)
				if err != nil {
					return err
				}
				filter = parsed
			}
			return printGraph(cmd.OutOrStdout(), workflow.Edges(), filter)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only show edges for customer or vendor")
	return cmd
}

// printGraph lists edges, then the terminal statuses. An empty role prints every edge.
func printGraph(w io.Writer, edges []workflow.Edge, role model.Role) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "From\tTo\tRole\tReason\tGroup\tLabel\n"); err != nil {
		return err
	}
	for _, e := range edges {
		if role != "" && e.Role != role {
			continue
		}
		reason := "optional"
		if e.RequiresReason {
			reason = "required"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.From, e.To, e.Role, reason, workflow.GroupOf(e.To), e.Label); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if err := writef(w, "\nTerminal:"); err != nil {
		return err
	}
	for _, s := range model.AllStatuses {
		if workflow.IsTerminal(s) {
			if err := writef(w, " %s", s); err != nil {
				return err
			}
		}
	}
	return writef(w, "\n")
}
