// Command bookings-admin runs maintenance tasks against the bookings database.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/bootstrap"
)

const defaultCommandTimeout = 5 * time.Minute

// app carries what every subcommand needs. Config loads lazily so --help works
// without a database configured.
type app struct {
	logger  *slog.Logger
	out     io.Writer
	timeout time.Duration
	load    func() (config.AppConfig, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		logger:  bootstrap.InitLogger(bootstrap.LoggerConfig{Level: os.Getenv("LOG_LEVEL"), Text: true, Output: os.Stderr}),
		out:     os.Stdout,
		timeout: defaultCommandTimeout,
		load:    bootstrap.LoadConfig,
	}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		a.logger.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookings-admin",
		Short:         "Maintenance commands for the bookings service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", a.timeout, "overall command timeout")
	root.SetOut(a.out)

	root.AddCommand(newMigrateCmd(a), newJobCmd(a), newGraphCmd())
	return root
}

// withTimeout bounds cmd's context by the --timeout flag.
func (a *app) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
