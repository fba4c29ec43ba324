package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/bootstrap"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/timeline"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/service"
)

func newJobCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect bookings",
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Print a job's status and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJobs(cmd, func(jobs *service.JobService) error {
				ctx, cancel := a.withTimeout(cmd)
				defer cancel()
				job, err := jobs.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), job)
				}
				return printJob(cmd.OutOrStdout(), job, jobs.Summarize(job))
			})
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the full job as JSON")

	timelineCmd := &cobra.Command{
		Use:   "timeline <job-id>",
		Short: "Print a job's merged activity timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJobs(cmd, func(jobs *service.JobService) error {
				ctx, cancel := a.withTimeout(cmd)
				defer cancel()
				events, err := jobs.GetTimeline(ctx, args[0])
				if err != nil {
					return err
				}
				return printTimeline(cmd.OutOrStdout(), events)
			})
		},
	}

	var role string
	transitions := &cobra.Command{
		Use:   "transitions <job-id>",
		Short: "List the moves a role may make from the job's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRoleFlag(role)
			if err != nil {
				return err
			}
			return a.withJobs(cmd, func(jobs *service.JobService) error {
				ctx, cancel := a.withTimeout(cmd)
				defer cancel()
				job, err := jobs.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printTransitions(cmd.OutOrStdout(), job, workflow.AvailableTransitions(job, r))
			})
		},
	}
	transitions.Flags().StringVar(&role, "role", "", "vendor or customer")
	_ = transitions.MarkFlagRequired("role")

	cmd.AddCommand(show, timelineCmd, transitions)
	return cmd
}

// withJobs builds a JobService over the configured store.
func (a *app) withJobs(cmd *cobra.Command, fn func(*service.JobService) error) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.StoreDriverMemory {
		return fmt.Errorf("job commands need a persistent store (STORE_DRIVER=%s)", config.StoreDriverPostgres)
	}
	return a.withDB(cmd, func(db *sql.DB) error {
		services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{Config: &cfg, DB: db, Logger: a.logger})
		if err != nil {
			return err
		}
		return fn(services.Jobs)
	})
}

func parseRoleFlag(value string) (model.Role, error) {
	r, ok := model.ParseRole(value)
	if !ok {
		return "", fmt.Errorf("invalid --role %q (valid options: vendor, customer)", value)
	}
	return r, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJob(w io.Writer, job *model.Job, summary workflow.Summary) error {
	if err := writef(w, "%s  %s\n", job.JobNumber, job.ID); err != nil {
		return err
	}
	if err := writef(w, "Status:   %s (%s)\nCustomer: %s\nVendor:   %s\nService:  %s\n",
		summary.Label, job.Status, job.CustomerID, job.VendorID, job.ServiceID); err != nil {
		return err
	}
	if err := writef(w, "Progress: %d%% (%s group)  Open: %d days\n",
		summary.Progress, summary.Group, summary.ElapsedDays); err != nil {
		return err
	}
	if err := writef(w, "Messages: %d  Attachments: %d\n\n", len(job.Messages), len(job.Attachments)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "When\tStatus\tActor\tReason\n"); err != nil {
		return err
	}
	for _, entry := range job.StatusHistory {
		if err := writef(tw, "%s\t%s\t%s\t%s\n",
			entry.Timestamp.Format(time.RFC3339), entry.Status, entry.ActorID, entry.Reason); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printTimeline(w io.Writer, events []timeline.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "When\tKind\tActor\tTitle\n"); err != nil {
		return err
	}
	for _, ev := range events {
		if err := writef(tw, "%s\t%s\t%s\t%s\n",
			ev.Timestamp.Format(time.RFC3339), ev.Kind, ev.ActorID, ev.Title); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printTransitions(w io.Writer, job *model.Job, moves []workflow.Transition) error {
	if len(moves) == 0 {
		return writef(w, "No transitions available from %s.\n", job.Status)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "Target\tLabel\tReason required\n"); err != nil {
		return err
	}
	for _, m := range moves {
		if err := writef(tw, "%s\t%s\t%t\n", m.Target, m.Label, m.RequiresReason); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printMigrationStatus(w io.Writer, applied, pending []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "Version\tState\n"); err != nil {
		return err
	}
	for _, v := range applied {
		if err := writef(tw, "%s\tapplied\n", v); err != nil {
			return err
		}
	}
	for _, v := range pending {
		if err := writef(tw, "%s\tpending\n", v); err != nil {
			return err
		}
	}
	return tw.Flush()
}
