package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultshot <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  snap       Capture tables and code blocks of notes into the vault")
	fmt.Fprintln(w, "  probe      Print the pixel size of images")
	fmt.Fprintln(w, "  serve      Run the HTTP export API")
	fmt.Fprintln(w, "  doctor     Check Chrome and vault setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'vaultshot help <command>' for details on a specific command.")
}

// printSnapUsage prints usage for the snap command.
func printSnapUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultshot snap <note|directory> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render notes (.md, .markdown, .html, .htm), capture each selected element")
	fmt.Fprintln(w, "as a 1920px wide PNG and store it in the vault.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Vault:")
	fmt.Fprintln(w, "      --vault <dir>         Vault root directory (default: .)")
	fmt.Fprintln(w, "      --backend <s>         Backend: fs, sqlite")
	fmt.Fprintln(w, "      --database <path>     SQLite file (default: <vault>/.vaultshot.db)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capture:")
	fmt.Fprintln(w, "  -d, --dir <folder>        Vault folder for snapshots (default: snapshots)")
	fmt.Fprintln(w, "  -e, --elements <tags>     Tags to capture (default: table,pre)")
	fmt.Fprintln(w, "      --style <p=v>         Style patch, repeatable: --style fontSize=18px")
	fmt.Fprintln(w, "      --theme <s>           Theme name, .css path, or none")
	fmt.Fprintln(w, "      --assets-dir <dir>    Custom theme directory (styles/<name>.css)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Capture timeout (default: 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome binary (default: ROD_BROWSER_BIN)")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w, "      --trace               Log browser protocol traffic")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Publish:")
	fmt.Fprintln(w, "  -p, --publish             Write <note>.published.html next to each note")
	fmt.Fprintln(w, "  -o, --output <dir>        Write published documents here instead")
	fmt.Fprintln(w, "      --title <s>           Heading of the published document")
	fmt.Fprintln(w, "      --image-base <url>    URL prefix of snapshot images")
	fmt.Fprintln(w, "      --probe-images        Fill missing <img> width/height")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  VAULTSHOT_CONFIG, VAULTSHOT_VAULT, VAULTSHOT_BACKEND, VAULTSHOT_DIR,")
	fmt.Fprintln(w, "  VAULTSHOT_THEME, VAULTSHOT_TIMEOUT, VAULTSHOT_WORKERS, VAULTSHOT_OUT_DIR,")
	fmt.Fprintln(w, "  VAULTSHOT_LOG_LEVEL, ROD_BROWSER_BIN, CI")
}

// printProbeUsage prints usage for the probe command.
func printProbeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultshot probe <source>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the natural size of images. A source is a file path, a file://,")
	fmt.Fprintln(w, "http:// or https:// URL, or a data: URI.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print one JSON object per source")
	fmt.Fprintln(w, "  -t, --timeout <d>         Timeout per source (default: 30s)")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultshot serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP export API.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Endpoints:")
	fmt.Fprintln(w, "  POST /v1/exports          Capture elements of an HTML document")
	fmt.Fprintln(w, "  GET  /v1/probe?src=<s>    Size of an image")
	fmt.Fprintln(w, "  GET  /healthz             Liveness check")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: 127.0.0.1:8420)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log every request")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Vault, capture, and browser flags are the same as for snap.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultshot doctor [--json] [--vault <dir>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome can be found and that the vault and temp")
	fmt.Fprintln(w, "directory are writable.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "snap":
		printSnapUsage(env.Stdout)
	case "probe":
		printProbeUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: vaultshot version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: vaultshot help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
