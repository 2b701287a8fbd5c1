// Package platform resolves per-OS config, data and log locations.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the config and data directories.
const DefaultAppName = "taskopia"

// Paths holds the resolved file locations for one app instance.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	// LogPath is the dev-mode logfmt sink.
	LogPath string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	DevMode bool
}

// Overrides replaces individual resolved paths. Empty fields keep the resolved value.
type Overrides struct {
	ConfigPath string
	DBPath     string
}

// DefaultPathsWithOptions resolves paths from the current OS and environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := AppDirName(opts)

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir := configDir
	if runtime.GOOS == "linux" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return Paths{}, fmt.Errorf("user home dir: %w", homeErr)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	if runtime.GOOS == "windows" {
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			dataDir = v
		}
	}

	env := map[string]string{
		"XDG_CONFIG_HOME": os.Getenv("XDG_CONFIG_HOME"),
		"XDG_DATA_HOME":   os.Getenv("XDG_DATA_HOME"),
		"APPDATA":         os.Getenv("APPDATA"),
		"LOCALAPPDATA":    os.Getenv("LOCALAPPDATA"),
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appName)
}

// AppDirName returns the directory name for opts, with a -dev suffix in dev mode.
func AppDirName(opts Options) string {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = DefaultAppName
	}
	if opts.DevMode {
		appName += "-dev"
	}
	return appName
}

// PathsFor resolves paths for goos from explicit base dirs and environment values.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase := userConfigDir
	dataBase := userDataDir

	switch goos {
	case "linux":
		if v := env["XDG_CONFIG_HOME"]; v != "" {
			configBase = v
		}
		if v := env["XDG_DATA_HOME"]; v != "" {
			dataBase = v
		}
	case "windows":
		if v := env["APPDATA"]; v != "" {
			configBase = v
		}
		if v := env["LOCALAPPDATA"]; v != "" {
			dataBase = v
		}
	}

	appConfigDir := filepath.Join(configBase, appName)
	appDataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(appConfigDir, "config.toml"),
		DataDir:    appDataDir,
		DBPath:     filepath.Join(appDataDir, appName+".db"),
		LogPath:    filepath.Join(appDataDir, "logs", appName+".log"),
	}, nil
}

// Apply returns p with non-empty overrides substituted.
func (p Paths) Apply(o Overrides) Paths {
	if v := strings.TrimSpace(o.ConfigPath); v != "" {
		p.ConfigPath = v
	}
	if v := strings.TrimSpace(o.DBPath); v != "" {
		p.DBPath = v
	}
	return p
}
