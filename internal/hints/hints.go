// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-vaultshot/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv") || os.Getenv("VAULTSHOT_CONTAINER") == "1"
}

// ForBrowserConnect returns hints for browser launch and connection errors.
// Detects CI/Docker environment and suggests the sandbox and binary settings.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	// Captures only drop the sandbox by themselves when CI=true
	if (inCI || IsInContainer()) && os.Getenv("CI") != "true" {
		hints = append(hints, "use --no-sandbox in Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN or --browser-bin to use an installed Chrome")
	}

	hints = append(hints, "run 'vaultshot doctor'")
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the capture timeout.
func ForTimeout() string {
	return format("for large tables or slow images, raise --timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and the user config directory.
func ForConfigNotFound(name string) string {
	hint := "use --config /path/to/file.yaml"
	if name != "" && !fileutil.IsFilePath(name) {
		if dir, err := os.UserConfigDir(); err == nil {
			hint += " or create " + dir + "/go-vaultshot/" + name + ".yaml"
		}
	}
	return format(hint)
}

// ForVaultAccess returns hints for vault open and write errors.
func ForVaultAccess() string {
	return format("check that --vault exists and is writable")
}

// ForStyleNotFound returns hints for theme not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", ") + ", none")
}

// ForUnsupportedNote returns the note formats snap accepts.
func ForUnsupportedNote() string {
	return format("notes must be .md, .markdown, .html or .htm")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
