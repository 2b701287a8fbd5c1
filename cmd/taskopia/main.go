package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	serveradapter "github.com/taskopia/taskopia/internal/adapters/server"
	"github.com/taskopia/taskopia/internal/adapters/storage/redisstore"
	"github.com/taskopia/taskopia/internal/platform"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

// programFactory is replaced in tests to avoid taking over the terminal.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner is replaced in tests to avoid binding a port.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// dialRedis connects the redis session backend.
var dialRedis = redisstore.Dial

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run executes one CLI invocation. fang renders errors and help.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version), fang.WithoutManpage())
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

func defaultRootOptions() rootOptions {
	opts := rootOptions{
		appName: platform.DefaultAppName,
		devMode: version == "dev",
	}
	if envDev, ok := parseBoolEnv("TASKOPIA_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TASKOPIA_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	return opts
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := defaultRootOptions()
	var joinCode string

	root := &cobra.Command{
		Use:   "taskopia",
		Short: "A team kanban board for the terminal",
		Long: "Taskopia is a four-column team kanban board. Run it without a subcommand to open the board,\n" +
			"or use serve to expose the HTTP API, MCP tools and the live event stream.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, joinCode, stderr)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config TOML")
	pf.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	pf.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev) and the dev log file")
	root.Flags().StringVar(&joinCode, "join-code", "", "open the join screen with this team code")

	root.AddCommand(
		newServeCommand(&opts, stderr),
		newListCommand(&opts, stdout, stderr),
		newExportCommand(&opts, stdout, stderr),
		newImportCommand(&opts, stderr),
		newSeedCommand(&opts, stdout, stderr),
		newPathsCommand(&opts, stdout),
		newVersionCommand(stdout),
	)
	return root
}

func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			configPath, dbPath, _ := resolveConfigAndDB(*opts, paths)
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(stdout, "log: %s\n", paths.LogPath)
			return nil
		},
	}
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			_, _ = fmt.Fprintf(stdout, "taskopia %s\n", version)
		},
	}
}

// parseBoolEnv reports the boolean value of name and whether it was set and valid.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
