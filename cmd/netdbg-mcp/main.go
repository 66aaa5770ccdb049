// Command netdbg-mcp exposes netcoredbg-driven .NET debugging over MCP.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opendbg/netdbg-mcp/internal/config"
	"github.com/opendbg/netdbg-mcp/internal/manager"
	"github.com/opendbg/netdbg-mcp/internal/mcpserver"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	mode := flag.String("mode", "", "Capability mode: 'readonly' or 'full' (overrides config file)")
	netCoreDbgPath := flag.String("netcoredbg", "", "Path to the netcoredbg binary (overrides config file)")
	harnessPath := flag.String("harness", "", "Path to the reflection harness binary (overrides config file)")
	maxSessions := flag.Int("max-sessions", 0, "Maximum concurrent sessions (overrides config file)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	help := flag.Bool("help", false, "Show help and exit")

	flag.Parse()

	if *showVersion {
		fmt.Println("netdbg-mcp version 0.1.0")
		os.Exit(0)
	}
	if *help {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	switch *mode {
	case "readonly":
		cfg.Mode = config.ModeReadOnly
	case "full":
		cfg.Mode = config.ModeFull
	}
	if *netCoreDbgPath != "" {
		cfg.NetCoreDbgPath = *netCoreDbgPath
	}
	if *harnessPath != "" {
		cfg.HarnessPath = *harnessPath
	}
	if *maxSessions > 0 {
		cfg.MaxSessions = *maxSessions
	}

	mgr := manager.New(cfg.MaxSessions, cfg.SessionTimeout)
	srv := mcpserver.NewServer(cfg, mgr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down...")
		srv.Close()
		os.Exit(0)
	}()

	log.Println("netdbg-mcp server starting...")
	if err := srv.ServeStdio(); err != nil {
		srv.Close()
		log.Fatalf("server error: %v", err)
	}
	srv.Close()
}

func printHelp() {
	fmt.Println(`netdbg-mcp: .NET debug-control mediator over MCP

Exposes netcoredbg-driven launch/attach/inspect/step control of managed
.NET programs as MCP tools, including a hot-reload session that survives
dotnet watch rebuilds.

USAGE:
    netdbg-mcp [OPTIONS]

OPTIONS:
    -config <path>        Path to configuration file (JSON)
    -mode <mode>          Capability mode: 'readonly' or 'full' (default: full)
    -netcoredbg <path>    Path to the netcoredbg binary
    -harness <path>       Path to the reflection harness binary
    -max-sessions <n>     Maximum concurrent sessions
    -version              Show version and exit
    -help                 Show this help message

CONFIGURATION:
    {
        "mode": "full",
        "allowAttach": true,
        "allowModify": true,
        "netCoreDbgPath": "/usr/bin/netcoredbg",
        "harnessPath": "/opt/netdbg-harness/netdbg-harness",
        "dotnetPath": "dotnet",
        "maxSessions": 10,
        "sessionTimeout": 1800000000000,
        "reconnectTimeout": 60000000000
    }
    (sessionTimeout and reconnectTimeout are integer nanoseconds)

TOOLS:
    Session lifecycle:
        launch, attach, launch_watch, stop_watch, restart, terminate
    Breakpoints:
        set_breakpoint, remove_breakpoint, list_breakpoints
    Execution control (full mode only):
        continue, pause, step_over, step_into, step_out
    Inspection:
        stack_trace, scopes, variables, evaluate, threads, output, status
    Manager:
        list_sessions, select_session, terminate_session
    Reflection harness:
        invoke
`)
}
