package register

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// serverEntry is the launch spec written into the MCP client config.
type serverEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// request is a parsed register invocation: where the config lives and which
// arguments the client should pass to the server on launch.
type request struct {
	scope      string // "project" or "user"
	directory  string // project scope only
	serverArgs []string
}

// Run executes the register subcommand. serverName is the key under
// mcpServers (e.g. "tagtally"); args is everything after "register" on the
// command line. Errors print to stderr and exit non-zero.
func Run(serverName string, args []string) {
	req, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	configPath, err := register(serverName, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Registered %q in %s\n", serverName, configPath)
}

// register resolves the config location and upserts the server entry,
// returning the config path it wrote.
func register(serverName string, req request) (string, error) {
	binaryPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating binary: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(binaryPath); err == nil {
		binaryPath = resolved
	}

	configPath, err := req.configPath()
	if err != nil {
		return "", err
	}

	if err := upsertServer(configPath, serverName, launchEntry(binaryPath, req.serverArgs)); err != nil {
		return "", err
	}
	return configPath, nil
}

// parseArgs splits a register invocation into scope, optional project
// directory, and the server arguments after the "--" separator.
func parseArgs(args []string) (request, error) {
	if len(args) == 0 {
		return request{}, fmt.Errorf("missing scope")
	}

	req := request{scope: args[0], directory: "."}
	if req.scope != "project" && req.scope != "user" {
		return request{}, fmt.Errorf("unknown scope %q (must be \"project\" or \"user\")", req.scope)
	}

	rest := args[1:]
	for i, arg := range rest {
		if arg == "--" {
			req.serverArgs = rest[i+1:]
			rest = rest[:i]
			break
		}
	}

	switch {
	case len(rest) == 0:
	case req.scope == "project" && len(rest) == 1:
		req.directory = rest[0]
	default:
		return request{}, fmt.Errorf("unexpected argument %q (server flags go after --)", rest[len(rest)-1])
	}

	return req, nil
}

// configPath resolves where this request's MCP config file lives: the project
// directory's .mcp.json, or the per-user ~/.claude.json.
func (req request) configPath() (string, error) {
	if req.scope == "project" {
		absDir, err := filepath.Abs(req.directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", req.directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

// launchEntry builds the launch spec for the binary. Windows MCP clients
// spawn through cmd, so the binary becomes an argument there.
func launchEntry(binaryPath string, serverArgs []string) serverEntry {
	if runtime.GOOS == "windows" {
		return serverEntry{
			Command: "cmd",
			Args:    append([]string{"/C", binaryPath}, serverArgs...),
		}
	}
	return serverEntry{Command: binaryPath, Args: serverArgs}
}

// upsertServer adds or replaces one entry under mcpServers, preserving
// everything else in the config file. The write goes through a temp file and
// rename, so a crash never leaves a truncated config behind.
func upsertServer(configPath string, serverName string, entry serverEntry) error {
	config := map[string]any{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	}

	servers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		if _, exists := config["mcpServers"]; exists {
			return fmt.Errorf("mcpServers in %s is not an object", configPath)
		}
		servers = map[string]any{}
		config["mcpServers"] = servers
	}
	servers[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	output = append(output, '\n')

	tmpFile, err := os.CreateTemp(filepath.Dir(configPath), ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", configPath, err)
	}
	return nil
}

func printUsage() {
	binaryName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  %s register project [directory]              # → <directory>/.mcp.json (default: .)\n", binaryName)
	fmt.Fprintf(os.Stderr, "  %s register user                             # → ~/.claude.json\n", binaryName)
	fmt.Fprintf(os.Stderr, "  %s register project . -- -root /srv/archive  # forward args to server\n", binaryName)
	fmt.Fprintf(os.Stderr, "  %s register user -- -root /srv/archive       # forward args to server\n", binaryName)
	fmt.Fprintf(os.Stderr, "\nThe server scans the archive given by -root; without it, the working directory.\n")
}

// DeriveServerName turns a binary path into the mcpServers key by stripping
// the .exe and -mcp suffixes: /usr/local/bin/tagtally-mcp registers as
// "tagtally".
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	return strings.TrimSuffix(name, "-mcp")
}
