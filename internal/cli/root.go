package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/billmal071/annas/internal/config"
	"github.com/billmal071/annas/internal/db"
	"github.com/billmal071/annas/internal/httpx"
	"github.com/billmal071/annas/internal/logger"
	"github.com/billmal071/annas/internal/tui"
)

// app carries what the commands share once the root has loaded config
type app struct {
	cfgFile string
	verbose bool

	cfg     *config.Config
	log     *logrus.Logger
	clients *httpx.Clients
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "annas",
		Short: "Search and download books from Anna's Archive",
		Long: `annas searches Anna's Archive and downloads books through the
member fast-download API.

Examples:
  annas search "clean code"                      Search for books
  annas download <md5> clean-code.pdf            Download by content hash
  annas history downloads                        Show past downloads
  annas config set anna.secret_key YOUR_KEY      Store your secret key`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.config/annas/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newSearchCmd(a))
	rootCmd.AddCommand(newDownloadCmd(a))
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd(rootCmd))

	return rootCmd
}

// Execute runs the root command and reports any error on stderr
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		Errorf(rootCmd.ErrOrStderr(), "%v", err)
	}
	return err
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}

	a.cfg = cfg
	a.log = logger.New(level, cmd.ErrOrStderr())
	a.clients = httpx.New(cfg.Network)
	return nil
}

// openHistory opens the journal, or returns nil when history is disabled
// or unavailable.
func (a *app) openHistory() *db.Store {
	if !a.cfg.History.Enabled {
		return nil
	}
	store, err := db.Open(config.GetDBPath())
	if err != nil {
		a.log.WithError(err).Warn("history unavailable")
		return nil
	}
	return store
}

// Printf prints if verbose mode is enabled
func (a *app) Printf(w io.Writer, format string, args ...interface{}) {
	if a.verbose {
		fmt.Fprintf(w, format, args...)
	}
}

// Errorf prints an error message
func Errorf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, tui.ErrorStyle.Render("Error: "+fmt.Sprintf(format, args...)))
}

// Successf prints a success message
func Successf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, tui.SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}
