package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	serveradapter "github.com/taskopia/taskopia/internal/adapters/server"
	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
	"github.com/taskopia/taskopia/internal/seed"
	"github.com/taskopia/taskopia/internal/tui"
)

// TestMain keeps CLI tests off the dev log file.
func TestMain(m *testing.M) {
	_ = os.Setenv("TASKOPIA_DEV_MODE", "false")
	os.Exit(m.Run())
}

type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// writeConfig writes a TOML config with instant auth delays plus any extra sections.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[auth]\nlogin_delay = \"0s\"\ninvite_delay = \"0s\"\n" + extra
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "taskopia.db")
}

func stubProgram(t *testing.T, runErr error) *int {
	t.Helper()
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })
	calls := 0
	programFactory = func(m tea.Model) program {
		if _, ok := m.(tui.Model); !ok {
			t.Fatalf("programFactory() model = %T, want tui.Model", m)
		}
		calls++
		return fakeProgram{runErr: runErr}
	}
	return &calls
}

func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if got := out.String(); got != "taskopia dev\n" {
		t.Fatalf("version output = %q", got)
	}
}

func TestRunStartsProgram(t *testing.T) {
	calls := stubProgram(t, nil)
	args := []string{"--db", testDBPath(t), "--config", writeConfig(t, "")}
	if err := run(context.Background(), args, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if *calls != 1 {
		t.Fatalf("program runs = %d, want 1", *calls)
	}
}

func TestRunProgramErrorIsReturned(t *testing.T) {
	stubProgram(t, errors.New("tty gone"))
	args := []string{"--db", testDBPath(t), "--config", writeConfig(t, "")}
	err := run(context.Background(), args, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "tty gone") {
		t.Fatalf("run() error = %v, want tty gone", err)
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if err := run(context.Background(), []string{"--wat"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"explode"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	stubProgram(t, nil)
	cfgPath := writeConfig(t, "[logging]\nlevel = \"loud\"\n")
	err := run(context.Background(), []string{"--db", testDBPath(t), "--config", cfgPath}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("run() error = %v, want logging.level error", err)
	}
}

func TestRunListSeedsEmptyStore(t *testing.T) {
	var out bytes.Buffer
	args := []string{"list", "--db", testDBPath(t), "--config", writeConfig(t, ""), "--priority", "High"}
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"TITLE", "Implement Landing Page", "John Doe", "5 shown • 3 completed • 9 pending • 12 total (25%)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("list output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Create Documentation") {
		t.Fatalf("list output includes a Low task under the High filter:\n%s", got)
	}
}

func TestRunListRejectsUnknownPriority(t *testing.T) {
	args := []string{"list", "--db", testDBPath(t), "--config", writeConfig(t, ""), "--priority", "Urgent"}
	if err := run(context.Background(), args, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid priority error")
	}
}

func TestRunSeedCommand(t *testing.T) {
	dbPath := testDBPath(t)
	cfgPath := writeConfig(t, "[board]\nseed_on_empty = false\n")

	var out bytes.Buffer
	if err := run(context.Background(), []string{"seed", "--db", dbPath, "--config", cfgPath}, &out, io.Discard); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	if !strings.Contains(out.String(), "seeded demo team and board") {
		t.Fatalf("seed output = %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), []string{"seed", "--db", dbPath, "--config", cfgPath}, &out, io.Discard); err != nil {
		t.Fatalf("run(seed again) error = %v", err)
	}
	if !strings.Contains(out.String(), "nothing seeded") {
		t.Fatalf("second seed output = %q", out.String())
	}
}

func TestRunExportCommandWritesSnapshot(t *testing.T) {
	dbPath := testDBPath(t)
	cfgPath := writeConfig(t, "")
	outPath := filepath.Join(t.TempDir(), "nested", "board.json")
	if err := run(context.Background(), []string{"export", "--db", dbPath, "--config", cfgPath, "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.Version != app.SnapshotVersion {
		t.Fatalf("snapshot version = %q", snap.Version)
	}
	if len(snap.Tasks) != 12 || len(snap.Users) != 5 || len(snap.Columns) != 4 {
		t.Fatalf("snapshot counts tasks=%d users=%d columns=%d", len(snap.Tasks), len(snap.Users), len(snap.Columns))
	}
}

func TestRunExportYAMLToStdoutAndImportRoundTrip(t *testing.T) {
	cfgPath := writeConfig(t, "")
	var out bytes.Buffer
	if err := run(context.Background(), []string{"export", "--db", testDBPath(t), "--config", cfgPath, "--format", "yaml"}, &out, io.Discard); err != nil {
		t.Fatalf("run(export yaml) error = %v", err)
	}
	if !strings.Contains(out.String(), "version: "+app.SnapshotVersion) {
		t.Fatalf("yaml export missing version line:\n%s", out.String())
	}

	inPath := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(inPath, out.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	target := testDBPath(t)
	emptyCfg := writeConfig(t, "[board]\nseed_on_empty = false\n")
	if err := run(context.Background(), []string{"import", "--db", target, "--config", emptyCfg, "--in", inPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var listed bytes.Buffer
	if err := run(context.Background(), []string{"list", "--db", target, "--config", emptyCfg}, &listed, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if !strings.Contains(listed.String(), "12 shown") {
		t.Fatalf("imported list output:\n%s", listed.String())
	}
}

func TestRunImportErrors(t *testing.T) {
	cfgPath := writeConfig(t, "")
	dbPath := testDBPath(t)
	if err := run(context.Background(), []string{"import", "--db", dbPath, "--config", cfgPath}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing --in error")
	}
	missing := filepath.Join(t.TempDir(), "missing.json")
	if err := run(context.Background(), []string{"import", "--db", dbPath, "--config", cfgPath, "--in", missing}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing file error")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"version":"other.v9"}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), []string{"import", "--db", dbPath, "--config", cfgPath, "--in", bad}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected snapshot validation error")
	}
	if err := run(context.Background(), []string{"export", "--db", dbPath, "--config", cfgPath, "--format", "xml"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestRunServeWiresDependencies(t *testing.T) {
	orig := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = orig })

	var gotCfg serveradapter.Config
	var gotDeps serveradapter.Dependencies
	serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
		gotCfg, gotDeps = cfg, deps
		progress, err := deps.Board.Progress(ctx)
		if err != nil {
			return err
		}
		if progress.Total != 12 {
			t.Errorf("Progress().Total = %d, want 12", progress.Total)
		}
		return deps.Ready(ctx)
	}

	args := []string{"serve", "--db", testDBPath(t), "--config", writeConfig(t, ""), "--http", "127.0.0.1:9999", "--mcp-endpoint", "/tools"}
	if err := run(context.Background(), args, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if gotCfg.HTTPBind != "127.0.0.1:9999" || gotCfg.MCPEndpoint != "/tools" || gotCfg.APIEndpoint != "/api/v1" {
		t.Fatalf("serve config = %#v", gotCfg)
	}
	if gotCfg.ServerVersion != version {
		t.Fatalf("ServerVersion = %q, want %q", gotCfg.ServerVersion, version)
	}
	if gotDeps.Events == nil || gotDeps.Tokens == nil || gotDeps.Accounts == nil || gotDeps.Logger == nil {
		t.Fatalf("serve dependencies incomplete: %#v", gotDeps)
	}
}

func TestRunServeRunnerErrorIsReturned(t *testing.T) {
	orig := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = orig })
	serveCommandRunner = func(context.Context, serveradapter.Config, serveradapter.Dependencies) error {
		return errors.New("address in use")
	}
	args := []string{"serve", "--db", testDBPath(t), "--config", writeConfig(t, "")}
	err := run(context.Background(), args, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("run(serve) error = %v, want address in use", err)
	}
}

func TestRuntimeRedisSessionBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)

	origDial := dialRedis
	t.Cleanup(func() { dialRedis = origDial })
	var dialedAddr string
	dialRedis = func(ctx context.Context, addr string, db int) (*redis.Client, error) {
		dialedAddr = addr
		return origDial(ctx, mr.Addr(), db)
	}

	cfgPath := writeConfig(t, "[session]\nbackend = \"redis\"\nredis_addr = \"redis.internal:6379\"\n")
	opts := rootOptions{configPath: cfgPath, dbPath: testDBPath(t), appName: "taskopia"}
	env, err := openRuntime(t.Context(), opts, "tui", io.Discard, envOptions{muteConsole: true})
	if err != nil {
		t.Fatalf("openRuntime() error = %v", err)
	}
	t.Cleanup(env.Close)

	session, err := env.newSession(t.Context())
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	if dialedAddr != "redis.internal:6379" {
		t.Fatalf("dialRedis addr = %q", dialedAddr)
	}
	state, err := session.Login(t.Context(), domain.Credentials{Email: "john.doe@example.com", Password: seed.Password})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !state.IsAuthenticated {
		t.Fatalf("Login() state = %#v, want authenticated", state)
	}
	if !mr.Exists("taskopia:taskopia_user") {
		t.Fatalf("redis keys = %v, want taskopia:taskopia_user", mr.Keys())
	}
	if err := session.Logout(t.Context()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if mr.Exists("taskopia:taskopia_user") {
		t.Fatal("session record still present after logout")
	}
}

func TestRuntimeRedisDialFailure(t *testing.T) {
	origDial := dialRedis
	t.Cleanup(func() { dialRedis = origDial })
	dialRedis = func(context.Context, string, int) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}
	stubProgram(t, nil)
	cfgPath := writeConfig(t, "[session]\nbackend = \"redis\"\n")
	err := run(context.Background(), []string{"--db", testDBPath(t), "--config", cfgPath}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("run() error = %v, want connection refused", err)
	}
}

func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	dbPath := testDBPath(t)
	cfgPath := writeConfig(t, "")
	t.Setenv("TASKOPIA_DB_PATH", dbPath)
	t.Setenv("TASKOPIA_CONFIG", cfgPath)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "config: "+cfgPath) || !strings.Contains(got, "db: "+dbPath) {
		t.Fatalf("paths output did not honour env overrides:\n%s", got)
	}

	if err := run(context.Background(), []string{"seed"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected env db path to be created: %v", err)
	}
}

func TestRunPathsCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"paths", "--app", "taskopia-test", "--dev=false"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"app: taskopia-test", "dev_mode: false", "config: ", "data_dir: ", "db: ", "log: "} {
		if !strings.Contains(got, want) {
			t.Fatalf("paths output missing %q:\n%s", want, got)
		}
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TASKOPIA_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("TASKOPIA_TEST_BOOL"); !ok || !v {
		t.Fatalf("parseBoolEnv(true) = %t, %t", v, ok)
	}
	t.Setenv("TASKOPIA_TEST_BOOL", "nope")
	if _, ok := parseBoolEnv("TASKOPIA_TEST_BOOL"); ok {
		t.Fatal("parseBoolEnv(nope) reported ok")
	}
	if _, ok := parseBoolEnv("TASKOPIA_TEST_UNSET"); ok {
		t.Fatal("parseBoolEnv(unset) reported ok")
	}
}

func TestRunDevModeWritesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "taskopia.log")
	logger, err := newRuntimeLogger(io.Discard, "taskopia", "debug", true, logPath)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("hello file", "k", "v")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(raw), "hello file") || !strings.Contains(string(raw), "k=v") {
		t.Fatalf("dev log content = %q", raw)
	}
	if logger.DevLogPath() != logPath {
		t.Fatalf("DevLogPath() = %q, want %q", logger.DevLogPath(), logPath)
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	logger, err := newRuntimeLogger(&console, "taskopia", "info", false, "")
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("visible")
	logger.SetConsoleEnabled(false)
	logger.Info("hidden")
	logger.SetConsoleEnabled(true)
	logger.Debug("below level")

	got := console.String()
	if !strings.Contains(got, "visible") {
		t.Fatalf("console output missing visible line: %q", got)
	}
	if strings.Contains(got, "hidden") || strings.Contains(got, "below level") {
		t.Fatalf("console output leaked muted lines: %q", got)
	}
}

func TestRuntimeLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newRuntimeLogger(io.Discard, "taskopia", "loud", false, ""); err == nil {
		t.Fatal("expected invalid level error")
	}
}
