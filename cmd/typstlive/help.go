package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: typstlive <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Compile every preview block of a docs tree to SVG/PNG")
	fmt.Fprintln(w, "  watch      Recompile a .typ file on every save")
	fmt.Fprintln(w, "  serve      Serve docs pages with live, editable previews")
	fmt.Fprintln(w, "  scan       List the preview blocks of a docs tree")
	fmt.Fprintln(w, "  doctor     Check typst, Chrome and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'typstlive help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printEngineUsage(w io.Writer) {
	fmt.Fprintln(w, "Engine:")
	fmt.Fprintln(w, "      --typst <path>        typst binary (default: typst on PATH)")
	fmt.Fprintln(w, "      --root <dir>          Project root for file access")
	fmt.Fprintln(w, "      --font-path <dir>     Extra font directory (repeatable)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-compile timeout (e.g., 10s)")
}

func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Previews:")
	fmt.Fprintln(w, "      --layout <s>          Default layout: horizontal, vertical")
	fmt.Fprintln(w, "      --alt <s>             Default alt text")
	fmt.Fprintln(w, "      --assets-base <url>   Base URL of fallback images")
	fmt.Fprintln(w, "      --read-only           Disable editing everywhere")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: typstlive render <file|dir> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compile every ```typst block and write <page>-<n>.svg files.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: out)")
	fmt.Fprintln(w, "      --png                 Also write PNG files (needs Chrome)")
	fmt.Fprintln(w, "      --scale <f>           PNG device scale factor (default: 2)")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent compiles (0 = auto)")
	fmt.Fprintln(w, "      --metrics-file <path> Write Prometheus text metrics after the run")
	fmt.Fprintln(w)
	printEngineUsage(w)
	fmt.Fprintln(w)
	printPreviewUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: typstlive watch <file.typ> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recompile on every save. Only the newest result is shown.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <file>       SVG output (default: <file>.svg)")
	fmt.Fprintln(w)
	printEngineUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: typstlive serve <docs-dir> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve Markdown pages with live Typst previews.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: 127.0.0.1:8080)")
	fmt.Fprintln(w, "      --assets-dir <dir>    Directory served under --assets-base")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom templates and styles")
	fmt.Fprintln(w, "      --title <s>           Index page title")
	fmt.Fprintln(w, "      --max-previews <n>    Live previews kept (default: 256)")
	fmt.Fprintln(w, "      --no-metrics          Disable /metrics")
	fmt.Fprintln(w)
	printEngineUsage(w)
	fmt.Fprintln(w)
	printPreviewUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printScanUsage prints usage for the scan command.
func printScanUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: typstlive scan [dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List the preview blocks found in Markdown files.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -f, --format <fmt>        Output format: table (default), yaml")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: typstlive doctor [--json] [--typst <path>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that typst and Chrome are usable.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "scan":
		printScanUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: typstlive version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: typstlive help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
