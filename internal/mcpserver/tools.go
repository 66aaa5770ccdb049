package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func sessionIDOpt() mcp.ToolOption {
	return mcp.WithString("sessionId", mcp.Description("Target session id; omitted means the default session"))
}

// registerTools registers every tool the current configuration permits:
// inspection and lifecycle tools are always available; execution-control
// tools require full mode. attach is always registered; its handler
// rejects the call when AllowAttach is off.
func (s *Server) registerTools() {
	s.registerLaunch()
	s.registerAttach()
	s.registerLaunchWatch()
	s.registerStopWatch()
	s.registerRestart()
	s.registerSetBreakpoint()
	s.registerRemoveBreakpoint()
	s.registerListBreakpoints()
	s.registerStackTrace()
	s.registerScopes()
	s.registerVariables()
	s.registerEvaluate()
	s.registerThreads()
	s.registerOutput()
	s.registerStatus()
	s.registerTerminate()
	s.registerListSessions()
	s.registerSelectSession()
	s.registerTerminateSession()
	s.registerInvoke()

	if s.config.CanUseControlTools() {
		s.registerContinue()
		s.registerPause()
		s.registerStepOver()
		s.registerStepInto()
		s.registerStepOut()
	}
}

func (s *Server) registerLaunch() {
	tool := mcp.NewTool("launch",
		mcp.WithDescription("Launch a new .NET debug session under netcoredbg."),
		mcp.WithString("program", mcp.Required(), mcp.Description("Path to the compiled assembly (DLL) or project executable")),
		mcp.WithString("args", mcp.Description("JSON array of string arguments to pass to the program")),
		mcp.WithString("cwd", mcp.Description("Working directory for the program")),
		mcp.WithBoolean("stopAtEntry", mcp.Description("Stop at the program's entry point")),
		mcp.WithString("env", mcp.Description("JSON object of extra environment variable overrides")),
		mcp.WithString("launchProfile", mcp.Description("Named profile from Properties/launchSettings.json to resolve environment from")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleLaunch)
}

func (s *Server) registerAttach() {
	tool := mcp.NewTool("attach",
		mcp.WithDescription("Attach netcoredbg to an already-running process."),
		mcp.WithNumber("processId", mcp.Required(), mcp.Description("OS process id of the running .NET process")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleAttach)
}

func (s *Server) registerLaunchWatch() {
	tool := mcp.NewTool("launch_watch",
		mcp.WithDescription("Start `dotnet watch` under a project and attach a debug session that survives hot-reload rebuilds."),
		mcp.WithString("projectPath", mcp.Required(), mcp.Description("Path to the .csproj or its containing directory")),
		mcp.WithString("launchProfile", mcp.Description("Named profile from Properties/launchSettings.json")),
		mcp.WithString("args", mcp.Description("JSON array of string arguments to pass through to the program")),
		mcp.WithBoolean("noHotReload", mcp.Description("Pass --no-hot-reload to dotnet watch")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleLaunchWatch)
}

func (s *Server) registerStopWatch() {
	tool := mcp.NewTool("stop_watch",
		mcp.WithDescription("Stop the hot-reload driver and debugger for a launch_watch session."),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleStopWatch)
}

func (s *Server) registerRestart() {
	tool := mcp.NewTool("restart",
		mcp.WithDescription("Relaunch a launch-mode session's program from the beginning, preserving breakpoints."),
		mcp.WithBoolean("rebuild", mcp.Description("Run `dotnet build` in the session's working directory before relaunching; fails without relaunching if the build fails")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleRestart)
}

func (s *Server) registerSetBreakpoint() {
	tool := mcp.NewTool("set_breakpoint",
		mcp.WithDescription("Set or update a breakpoint at file:line, optionally conditional."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Absolute source file path")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number")),
		mcp.WithString("condition", mcp.Description("Expression that must be true for the breakpoint to stop execution")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleSetBreakpoint)
}

func (s *Server) registerRemoveBreakpoint() {
	tool := mcp.NewTool("remove_breakpoint",
		mcp.WithDescription("Remove a breakpoint at file:line."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Absolute source file path")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleRemoveBreakpoint)
}

func (s *Server) registerListBreakpoints() {
	tool := mcp.NewTool("list_breakpoints",
		mcp.WithDescription("List every breakpoint currently tracked for the session, grouped by file."),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleListBreakpoints)
}

func (s *Server) registerContinue() {
	tool := mcp.NewTool("continue",
		mcp.WithDescription("Resume execution of a stopped thread (or the implicit default thread)."),
		mcp.WithNumber("threadId", mcp.Description("Thread id; omitted means the last stop's thread, or 1")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleContinue)
}

func (s *Server) registerPause() {
	tool := mcp.NewTool("pause",
		mcp.WithDescription("Pause a running thread (or the implicit default thread)."),
		mcp.WithNumber("threadId", mcp.Description("Thread id; omitted means the last stop's thread, or 1")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handlePause)
}

func (s *Server) registerStepOver() {
	tool := mcp.NewTool("step_over",
		mcp.WithDescription("Step over the current line."),
		mcp.WithNumber("threadId", mcp.Description("Thread id; omitted means the last stop's thread, or 1")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleStepOver)
}

func (s *Server) registerStepInto() {
	tool := mcp.NewTool("step_into",
		mcp.WithDescription("Step into the call on the current line."),
		mcp.WithNumber("threadId", mcp.Description("Thread id; omitted means the last stop's thread, or 1")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleStepInto)
}

func (s *Server) registerStepOut() {
	tool := mcp.NewTool("step_out",
		mcp.WithDescription("Step out of the current function."),
		mcp.WithNumber("threadId", mcp.Description("Thread id; omitted means the last stop's thread, or 1")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleStepOut)
}

func (s *Server) registerStackTrace() {
	tool := mcp.NewTool("stack_trace",
		mcp.WithDescription("Get a thread's call stack."),
		mcp.WithNumber("threadId", mcp.Description("Thread id; omitted means the last stop's thread, or 1")),
		mcp.WithNumber("depth", mcp.Description("Maximum frames to return (default 20)")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleStackTrace)
}

func (s *Server) registerScopes() {
	tool := mcp.NewTool("scopes",
		mcp.WithDescription("List the variable scopes visible in a stack frame."),
		mcp.WithNumber("frameId", mcp.Required(), mcp.Description("Stack frame id from stack_trace")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleScopes)
}

func (s *Server) registerVariables() {
	tool := mcp.NewTool("variables",
		mcp.WithDescription("List the children of a variables container."),
		mcp.WithNumber("variablesReference", mcp.Required(), mcp.Description("Reference from scopes or a parent variable")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleVariables)
}

func (s *Server) registerEvaluate() {
	tool := mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate a C# expression in a stack frame's context."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression to evaluate")),
		mcp.WithNumber("frameId", mcp.Description("Stack frame id; omitted evaluates at global scope where supported")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleEvaluate)
}

func (s *Server) registerThreads() {
	tool := mcp.NewTool("threads",
		mcp.WithDescription("List every thread the debugger currently reports."),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleThreads)
}

func (s *Server) registerOutput() {
	tool := mcp.NewTool("output",
		mcp.WithDescription("Return the session's captured stdout/stderr/hot-reload log, newest last."),
		mcp.WithNumber("lines", mcp.Description("Maximum lines to return (default 20)")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleOutput)
}

func (s *Server) registerStatus() {
	tool := mcp.NewTool("status",
		mcp.WithDescription("Report the session's current state, stop reason, and counters."),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleStatus)
}

func (s *Server) registerTerminate() {
	tool := mcp.NewTool("terminate",
		mcp.WithDescription("Terminate a session's debugger and, optionally, its debuggee process."),
		mcp.WithBoolean("terminateDebuggee", mcp.Description("Also kill the debuggee process group (default false)")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleTerminate)
}

func (s *Server) registerListSessions() {
	tool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List every active session id and its current state."),
	)
	s.mcp.AddTool(tool, s.handleListSessions)
}

func (s *Server) registerSelectSession() {
	tool := mcp.NewTool("select_session",
		mcp.WithDescription("Change which session is the default target for tool calls that omit sessionId."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Session id to make default")),
	)
	s.mcp.AddTool(tool, s.handleSelectSession)
}

func (s *Server) registerTerminateSession() {
	tool := mcp.NewTool("terminate_session",
		mcp.WithDescription("Terminate and unregister a session by id."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Session id to terminate")),
		mcp.WithBoolean("terminateDebuggee", mcp.Description("Also kill the debuggee process group (default false)")),
	)
	s.mcp.AddTool(tool, s.handleTerminateSession)
}

func (s *Server) registerInvoke() {
	tool := mcp.NewTool("invoke",
		mcp.WithDescription("Run the reflection harness against a compiled assembly to call one method directly, optionally under the debugger."),
		mcp.WithString("assembly", mcp.Required(), mcp.Description("Path to the compiled assembly (DLL)")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Fully-qualified type name")),
		mcp.WithString("method", mcp.Required(), mcp.Description("Method name to call")),
		mcp.WithString("args", mcp.Description("JSON array of method arguments")),
		mcp.WithString("ctorArgs", mcp.Description("JSON array of constructor arguments, for instance methods")),
		mcp.WithBoolean("debug", mcp.Description("Launch the harness as a debug session instead of a plain subprocess")),
		mcp.WithString("cwd", mcp.Description("Working directory for the harness process")),
		sessionIDOpt(),
	)
	s.mcp.AddTool(tool, s.handleInvoke)
}
