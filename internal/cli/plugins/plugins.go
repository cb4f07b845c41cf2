// Package plugins provides exec-based plugin support for testwise.
// Plugins are separate binaries named testwise-<command> that are discovered
// and executed when an unknown command is invoked, for example a converter
// that turns another runner's output into testwise CSV.
//
// This follows the same pattern used by kubectl and git for plugins.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "testwise-"

// Environment variables understood by plugin discovery and passed to plugins.
const (
	// EnvPluginPath lists extra plugin directories, separated like PATH.
	EnvPluginPath = "TESTWISE_PLUGIN_PATH"
	// EnvConfig carries the --config value to the plugin.
	EnvConfig = "TESTWISE_CONFIG"
	// EnvLogLevel carries the --log-level value to the plugin.
	EnvLogLevel = "TESTWISE_LOG_LEVEL"
)

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// SearchDirs returns the directories searched before PATH, in order:
//  1. Same directory as the testwise binary
//  2. Each entry of TESTWISE_PLUGIN_PATH
//  3. ~/.testwise/plugins/
func SearchDirs() []string {
	var dirs []string
	if execPath, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(execPath))
	}
	for _, dir := range filepath.SplitList(os.Getenv(EnvPluginPath)) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".testwise", "plugins"))
	}
	return dirs
}

// FindPlugin searches SearchDirs and then PATH for testwise-<command>.
// Returns the full path to the plugin binary if found.
func FindPlugin(command string) (string, error) {
	if command == "" || strings.ContainsAny(command, `/\`) {
		return "", ErrPluginNotFound
	}
	pluginName := Prefix + command

	for _, dir := range SearchDirs() {
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Invocation describes one plugin run.
type Invocation struct {
	Path string
	Args []string

	// ConfigPath and LogLevel are exported to the plugin when set.
	ConfigPath string
	LogLevel   string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes a plugin and returns its exit code. Unset streams default to
// the process's own.
func Run(ctx context.Context, inv Invocation) int {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	cmd.Env = os.Environ()
	if inv.ConfigPath != "" {
		cmd.Env = append(cmd.Env, EnvConfig+"="+inv.ConfigPath)
	}
	if inv.LogLevel != "" {
		cmd.Env = append(cmd.Env, EnvLogLevel+"="+inv.LogLevel)
	}

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(cmd.Stderr, "Error executing plugin: %v\n", err)
		return 2
	}

	return 0
}

// FormatNotFoundError returns a helpful error message when neither a
// built-in command nor a plugin matches.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "unknown command %q for \"testwise\"\n", command)
	sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	fmt.Fprintf(&sb, "  - %s%s in the same directory as testwise\n", Prefix, command)
	fmt.Fprintf(&sb, "  - %s%s in a directory listed in %s\n", Prefix, command, EnvPluginPath)
	fmt.Fprintf(&sb, "  - ~/.testwise/plugins/%s%s\n", Prefix, command)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)
	sb.WriteString("\nRun 'testwise --help' for usage.")

	return sb.String()
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	// On Unix, check executable bit
	if info.Mode().IsRegular() {
		return info.Mode()&0111 != 0
	}

	return false
}
