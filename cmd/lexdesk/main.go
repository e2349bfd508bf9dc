package main

import (
	"fmt"
	"io"
	"os"
)

const usageText = `lexdesk manages cases, clients, documents and tasks.

Usage:
  lexdesk <command> [flags]

Commands:
  serve       run the API server
  config      print configuration (effective or defaults)
  cases       list|get|search|create|update|delete cases
  clients     list|get|search|create|update|delete clients
  documents   list|get|search|create|update|delete document records
  tasks       list|get|search|create|update|delete tasks
  upload      upload a document file to a case
  download    download a document file
  export      write the case list as an xlsx report
  meet        schedule a meeting or show calendar status
  calendar    authorize the calendar integration
  store       seed the configured storage from another backend
  ui          run the terminal dashboard
  version     print the build version
  help        show help

Serve flags:
  --background    run in background (logs to file)
  --force         stop any running server before starting
  --kill          stop any running server and exit

Examples:
  lexdesk cases list --filter status=Active
  lexdesk clients create --data '{"name":"Dana Ruiz","email":"dana@example.com"}'
  lexdesk upload --case case_abc123 --category pleading ./complaint.pdf
  lexdesk meet --case case_abc123 --date 2026-11-03 --time 14:30
  lexdesk config --format toml
`

func main() {
	os.Exit(run(os.Args[1:], defaultCommandWiring(os.Stdout, os.Stderr)))
}

// run dispatches args to a command and returns the process exit code.
func run(args []string, wiring commandWiring) int {
	if len(args) == 0 {
		printUsage(wiring.stderr)
		return 0
	}
	name, rest := args[0], args[1:]
	switch name {
	case "-h", "--help", "help":
		printUsage(wiring.stdout)
		return 0
	case "version", "--version":
		fmt.Fprintln(wiring.stdout, wiring.version)
		return 0
	}

	runner, ok := buildCommands(wiring)[name]
	if !ok {
		fmt.Fprintf(wiring.stderr, "unknown command: %s\n\n", name)
		printUsage(wiring.stderr)
		return 2
	}
	if err := runner.Run(rest); err != nil {
		fmt.Fprintf(wiring.stderr, "%s error: %v\n", name, err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}
