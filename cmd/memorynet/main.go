package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	memorynet "github.com/unowned-ai/memorynet/pkg"
	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/config"
	pkgdb "github.com/unowned-ai/memorynet/pkg/db"
	"github.com/unowned-ai/memorynet/pkg/logger"
	"github.com/unowned-ai/memorynet/pkg/memories"
	"github.com/unowned-ai/memorynet/pkg/utils"
)

// app carries the resolved configuration into every command.
type app struct {
	configFile string
	v          *viper.Viper
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "memorynet",
		Short:         "A private vault for your memories, with a legacy link for the people you leave behind.",
		Version:       fmt.Sprintf("v%s", memorynet.Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to memorynet.yaml (default: the user config directory)")
	flags.String("db", "", "Path to the database file (default: a system-specific location)")
	flags.Bool("wal", false, "Enable SQLite WAL (Write-Ahead Logging) mode")
	flags.String("sync", "FULL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	flags.String("user", "", "Email of the user whose memories to work with")
	flags.Bool("debug", false, "Enable debug logging on stderr")
	flags.String("tz", "Local", "Time zone used to group memories by day (IANA name)")

	rootCmd.AddCommand(
		newCompletionCmd(rootCmd),
		newVersionCmd(),
		newDBCmd(a),
		newUsersCmd(a),
		newMemoriesCmd(a),
		newTagsCmd(a),
		newTimelineCmd(a),
		newStatsCmd(a),
		newAskCmd(a),
		newLegacyCmd(a),
		newMCPCmd(a),
		newServeCmd(a),
		newTUICmd(a),
	)

	return rootCmd
}

// load resolves config for the command about to run: defaults, file, env,
// then flags.
func (a *app) load(cmd *cobra.Command) error {
	v, err := config.InitViper(a.configFile, utils.GetDefaultConfigDir(), ".")
	if err != nil {
		return err
	}
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	a.v = v
	a.cfg = cfg
	a.logger = logger.NewLogger(cfg.Log.Debug)
	return nil
}

// openDB opens the configured database and brings its schema up to date.
func (a *app) openDB() (*sql.DB, error) {
	dbPath, err := utils.ResolveAndEnsureDBPath(a.cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opening database", zap.String("path", dbPath), zap.Bool("wal", a.cfg.DB.WAL), zap.String("sync", a.cfg.DB.Sync))
	return pkgdb.OpenAndUpgrade(dbPath, a.cfg.DB.WAL, a.cfg.DB.Sync, a.logger)
}

func (a *app) openBackend() (*backend.SQL, error) {
	dbConn, err := a.openDB()
	if err != nil {
		return nil, err
	}
	return backend.New(dbConn, a.cfg.User.Email), nil
}

// closeDB checkpoints the WAL back into the main file before closing.
func (a *app) closeDB(dbConn *sql.DB) {
	if a.cfg.DB.WAL {
		if _, err := dbConn.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			a.logger.Warn("WAL checkpoint failed during close", zap.Error(err))
		}
	}
	dbConn.Close()
}

func (a *app) location() (*time.Location, error) {
	return a.cfg.Location()
}

func (a *app) synthesizer(loc *time.Location) *brain.Synthesizer {
	return brain.NewSynthesizer(a.cfg.Brain.MaxCitations, loc)
}

// withUser opens the backend, resolves the configured user and runs fn.
func (a *app) withUser(ctx context.Context, fn func(b *backend.SQL, user memories.User) error) error {
	b, err := a.openBackend()
	if err != nil {
		return err
	}
	defer a.closeDB(b.DB)

	user, err := b.RequireUser(ctx)
	if err != nil {
		return err
	}
	return fn(b, user)
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for memorynet.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(memorynet completion bash)

  Zsh:
    $ memorynet completion zsh > "${fpath[1]}/_memorynet"

  Fish:
    $ memorynet completion fish > ~/.config/fish/completions/memorynet.fish

  PowerShell:
    PS> memorynet completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE:     func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version number of memorynet",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), memorynet.Version)
		},
	}
}

func newDBCmd(a *app) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the memorynet database",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "upgrade",
		Short: "Create or upgrade the database schema to the latest version",
		Long: `Connects to the SQLite database at the configured path and applies any necessary
schema migrations. If the database does not exist it is created with the latest schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbConn, err := a.openDB()
			if err != nil {
				return err
			}
			defer a.closeDB(dbConn)

			version, err := pkgdb.GetComponentSchemaVersion(dbConn, pkgdb.MemoriesDBComponent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database is at schema version %d.\n", version)
			return nil
		},
	})

	return dbCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
