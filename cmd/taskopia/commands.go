package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	serveradapter "github.com/taskopia/taskopia/internal/adapters/server"
	"github.com/taskopia/taskopia/internal/adapters/server/authtoken"
	servercommon "github.com/taskopia/taskopia/internal/adapters/server/common"
	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
	"github.com/taskopia/taskopia/internal/tui"
)

// runTUI opens the board in the terminal.
func runTUI(ctx context.Context, opts rootOptions, joinCode string, stderr io.Writer) error {
	env, err := openRuntime(ctx, opts, "tui", stderr, envOptions{muteConsole: true})
	if err != nil {
		return err
	}
	defer env.Close()

	session, err := env.newSession(ctx)
	if err != nil {
		return err
	}
	m := tui.NewModel(
		env.svc,
		tui.WithSession(session),
		tui.WithConfirmDelete(env.cfg.UI.ConfirmDelete),
		tui.WithMarkdownStyle(env.cfg.UI.MarkdownStyle),
		tui.WithJoinCode(joinCode),
	)
	env.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("tui program loop exited")
	return nil
}

type serveFlags struct {
	httpBind       string
	apiEndpoint    string
	mcpEndpoint    string
	eventsEndpoint string
}

func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, MCP tools and the live event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, *opts, flags, stderr)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.httpBind, "http", "", "HTTP listen address (defaults to server.http_bind)")
	f.StringVar(&flags.apiEndpoint, "api-endpoint", "", "REST API base path (defaults to server.api_endpoint)")
	f.StringVar(&flags.mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path (defaults to server.mcp_endpoint)")
	f.StringVar(&flags.eventsEndpoint, "events-endpoint", "", "websocket event stream path (defaults to server.events_endpoint)")
	return cmd
}

func runServe(cmd *cobra.Command, opts rootOptions, flags serveFlags, stderr io.Writer) error {
	ctx := cmd.Context()
	env, err := openRuntime(ctx, opts, "serve", stderr, envOptions{withHub: true})
	if err != nil {
		return err
	}
	defer env.Close()

	secret, err := env.tokenSecret()
	if err != nil {
		return err
	}
	tokens, err := authtoken.New(secret, env.cfg.Auth.TokenTTL.Std())
	if err != nil {
		return fmt.Errorf("configure token issuer: %w", err)
	}

	serverCfg := serveradapter.Config{
		HTTPBind:       firstNonEmpty(flags.httpBind, env.cfg.Server.HTTPBind),
		APIEndpoint:    firstNonEmpty(flags.apiEndpoint, env.cfg.Server.APIEndpoint),
		MCPEndpoint:    firstNonEmpty(flags.mcpEndpoint, env.cfg.Server.MCPEndpoint),
		EventsEndpoint: firstNonEmpty(flags.eventsEndpoint, env.cfg.Server.EventsEndpoint),
		ServerName:     "taskopia",
		ServerVersion:  version,
	}
	adapter := servercommon.NewAppServiceAdapter(env.svc, servercommon.AdapterConfig{
		InviteBaseURL: env.cfg.Auth.InviteBaseURL,
	})
	env.logger.Info(
		"command flow start",
		"command", "serve",
		"http_bind", serverCfg.HTTPBind,
		"api_endpoint", serverCfg.APIEndpoint,
		"mcp_endpoint", serverCfg.MCPEndpoint,
		"events_endpoint", serverCfg.EventsEndpoint,
	)
	err = serveCommandRunner(ctx, serverCfg, serveradapter.Dependencies{
		Board:    adapter,
		Accounts: adapter,
		Tokens:   tokens,
		Events:   env.hub,
		Ready:    env.repo.Ping,
		Logger:   env.logger.Console().WithPrefix("http"),
	})
	if err != nil {
		env.logger.Error("command flow failed", "command", "serve", "err", err)
		return fmt.Errorf("run serve command: %w", err)
	}
	env.logger.Info("command flow complete", "command", "serve")
	return nil
}

func newListCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	filters := domain.DefaultFilters()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(cmd.Context(), *opts, "list", stderr, envOptions{})
			if err != nil {
				return err
			}
			defer env.Close()
			return writeTaskTable(cmd.Context(), stdout, env.svc, filters)
		},
	}
	f := cmd.Flags()
	f.StringVar(&filters.Search, "search", "", "case-insensitive title/description search")
	f.StringVar(&filters.Priority, "priority", domain.FilterAll, "priority filter (High, Medium, Low or All)")
	f.StringVar(&filters.AssigneeID, "assignee", domain.FilterAll, "assignee user id or All")
	f.StringVar(&filters.Status, "status", domain.FilterAll, "status filter or All")
	return cmd
}

// writeTaskTable renders the filtered tasks and a progress line.
func writeTaskTable(ctx context.Context, w io.Writer, svc *app.Service, filters domain.FilterOptions) error {
	tasks, err := svc.ListTasks(ctx, filters)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	users, err := svc.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	progress, err := svc.Progress(ctx)
	if err != nil {
		return fmt.Errorf("compute progress: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		assignee := names[t.AssigneeID]
		if assignee == "" {
			assignee = t.AssigneeID
		}
		rows = append(rows, []string{
			t.ID,
			t.Title,
			string(t.Status),
			string(t.Priority),
			assignee,
			t.Deadline.Format(domain.DateLayout),
		})
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "DEADLINE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d shown • %d completed • %d pending • %d total (%d%%)\n",
		len(tasks), progress.Completed, progress.Pending, progress.Total, progress.Percentage)
	return err
}

func newExportCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a board snapshot as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapFormat, err := resolveSnapshotFormat(format, outPath)
			if err != nil {
				return err
			}
			env, err := openRuntime(cmd.Context(), *opts, "export", stderr, envOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			snap, err := env.svc.ExportSnapshot(cmd.Context())
			if err != nil {
				env.logger.Error("export snapshot failed", "err", err)
				return fmt.Errorf("export snapshot: %w", err)
			}
			if outPath == "" || outPath == "-" {
				return app.EncodeSnapshot(stdout, snap, snapFormat)
			}
			if err := writeSnapshotFile(outPath, snap, snapFormat); err != nil {
				return err
			}
			env.logger.Info("snapshot exported", "path", outPath, "format", snapFormat, "tasks", len(snap.Tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (defaults to the file extension)")
	return cmd
}

func writeSnapshotFile(path string, snap app.Snapshot, format app.SnapshotFormat) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close export file: %w", closeErr)
		}
	}()
	return app.EncodeSnapshot(file, snap, format)
}

func newImportCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var inPath, format string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board with a JSON or YAML snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			snapFormat, err := resolveSnapshotFormat(format, inPath)
			if err != nil {
				return err
			}
			file, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			snap, err := app.DecodeSnapshot(file, snapFormat)
			_ = file.Close()
			if err != nil {
				return err
			}

			env, err := openRuntime(cmd.Context(), *opts, "import", stderr, envOptions{skipSeed: true})
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.svc.ImportSnapshot(cmd.Context(), snap); err != nil {
				env.logger.Error("import snapshot failed", "path", inPath, "err", err)
				return fmt.Errorf("import snapshot: %w", err)
			}
			env.logger.Info("snapshot imported", "path", inPath, "tasks", len(snap.Tasks), "users", len(snap.Users))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot path")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (defaults to the file extension)")
	return cmd
}

func newSeedCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the demo team and board into an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(cmd.Context(), *opts, "seed", stderr, envOptions{skipSeed: true})
			if err != nil {
				return err
			}
			defer env.Close()
			seeded, err := env.seed(cmd.Context())
			if err != nil {
				return err
			}
			if !seeded {
				_, err = fmt.Fprintln(stdout, "store is not empty; nothing seeded")
				return err
			}
			_, err = fmt.Fprintln(stdout, "seeded demo team and board")
			return err
		},
	}
}

func resolveSnapshotFormat(raw, path string) (app.SnapshotFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return app.SnapshotFormatForPath(path), nil
	case "json":
		return app.SnapshotFormatJSON, nil
	case "yaml", "yml":
		return app.SnapshotFormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported snapshot format %q", raw)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
