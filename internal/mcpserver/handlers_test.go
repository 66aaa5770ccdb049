package mcpserver

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	godap "github.com/google/go-dap"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opendbg/netdbg-mcp/internal/config"
	"github.com/opendbg/netdbg-mcp/internal/dap"
	"github.com/opendbg/netdbg-mcp/internal/manager"
	"github.com/opendbg/netdbg-mcp/internal/session"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

// fakeAdapter is a minimal stand-in netcoredbg speaking real DAP framing
// over an in-memory net.Pipe, mirroring the helper used in
// internal/session's tests.
type fakeAdapter struct {
	reader *bufio.Reader
	writer *bufio.Writer
}

func newFakeAdapter(conn net.Conn) *fakeAdapter {
	return &fakeAdapter{reader: bufio.NewReader(conn), writer: bufio.NewWriter(conn)}
}

func (f *fakeAdapter) readRequest(t *testing.T) godap.Message {
	t.Helper()
	msg, err := godap.ReadProtocolMessage(f.reader)
	if err != nil {
		t.Fatalf("fake adapter: read: %v", err)
	}
	return msg
}

func (f *fakeAdapter) send(t *testing.T, msg godap.Message) {
	t.Helper()
	if err := godap.WriteProtocolMessage(f.writer, msg); err != nil {
		t.Fatalf("fake adapter: write: %v", err)
	}
	if err := f.writer.Flush(); err != nil {
		t.Fatalf("fake adapter: flush: %v", err)
	}
}

// handleDisconnect replies to one disconnect request, used when a test
// expects the session to be terminated.
func (f *fakeAdapter) handleDisconnect(t *testing.T) {
	t.Helper()
	req := f.readRequest(t).(*godap.DisconnectRequest)
	f.send(t, &godap.DisconnectResponse{
		Response: godap.Response{
			ProtocolMessage: godap.ProtocolMessage{Seq: req.Seq + 1, Type: "response"},
			RequestSeq:      req.Seq,
			Success:         true,
			Command:         "disconnect",
		},
	})
}

func (f *fakeAdapter) handleSetBreakpoints(t *testing.T) {
	t.Helper()
	req := f.readRequest(t).(*godap.SetBreakpointsRequest)
	echoed := make([]godap.Breakpoint, len(req.Arguments.Breakpoints))
	for i, b := range req.Arguments.Breakpoints {
		echoed[i] = godap.Breakpoint{Id: i + 1, Verified: true, Line: b.Line}
	}
	f.send(t, &godap.SetBreakpointsResponse{
		Response: godap.Response{
			ProtocolMessage: godap.ProtocolMessage{Seq: req.Seq + 1, Type: "response"},
			RequestSeq:      req.Seq,
			Success:         true,
			Command:         "setBreakpoints",
		},
		Body: godap.SetBreakpointsResponseBody{Breakpoints: echoed},
	})
}

// newTestSession builds a real *session.Session backed by a fake adapter
// reachable via the returned fakeAdapter, registered under id.
func newTestSession(t *testing.T, id string) (*session.Session, *fakeAdapter) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
	})

	transport := dap.NewStdioTransport(clientConn, clientConn)
	client := dap.NewClient(transport)
	t.Cleanup(func() { _ = client.Close() })

	sess := session.New(id, types.SessionConfig{Mode: types.ModeLaunch}, client, nil, 4242)
	return sess, newFakeAdapter(serverConn)
}

func newRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected non-empty tool result content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected mcp.TextContent, got %T", res.Content[0])
	}
	return tc.Text
}

func newTestServer(t *testing.T) (*Server, *manager.Manager) {
	t.Helper()
	mgr := manager.New(10, time.Minute)
	cfg := config.DefaultConfig()
	return &Server{manager: mgr, config: cfg}, mgr
}

func TestHandleSetAndListBreakpoints(t *testing.T) {
	s, mgr := newTestServer(t)
	sess, adapter := newTestSession(t, "default")
	if err := mgr.Add(sess); err != nil {
		t.Fatalf("Add: %v", err)
	}

	done := make(chan struct{})
	go func() { defer close(done); adapter.handleSetBreakpoints(t) }()

	res, err := s.handleSetBreakpoint(context.Background(), newRequest(map[string]interface{}{
		"file": "/src/Main.cs",
		"line": float64(10),
	}))
	if err != nil {
		t.Fatalf("handleSetBreakpoint: %v", err)
	}
	<-done
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	res, err = s.handleListBreakpoints(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("handleListBreakpoints: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if text == "" {
		t.Fatal("expected non-empty breakpoint listing")
	}
}

func TestHandleSetBreakpointMissingFileParam(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleSetBreakpoint(context.Background(), newRequest(map[string]interface{}{
		"line": float64(10),
	}))
	if err != nil {
		t.Fatalf("handleSetBreakpoint: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing 'file' parameter")
	}
}

func TestHandleRemoveBreakpointPropagatesNotFound(t *testing.T) {
	s, mgr := newTestServer(t)
	sess, _ := newTestSession(t, "default")
	if err := mgr.Add(sess); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := s.handleRemoveBreakpoint(context.Background(), newRequest(map[string]interface{}{
		"file": "/src/Main.cs",
		"line": float64(10),
	}))
	if err != nil {
		t.Fatalf("handleRemoveBreakpoint: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result removing a breakpoint that was never set")
	}
}

func TestHandleListSessionsReportsDefault(t *testing.T) {
	s, mgr := newTestServer(t)
	sess, _ := newTestSession(t, "default")
	if err := mgr.Add(sess); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := s.handleListSessions(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("handleListSessions: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if text == "" {
		t.Fatal("expected non-empty session listing")
	}
}

func TestHandleSelectSessionUnknownID(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleSelectSession(context.Background(), newRequest(map[string]interface{}{
		"sessionId": "nope",
	}))
	if err != nil {
		t.Fatalf("handleSelectSession: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result selecting an unknown session id")
	}
}

func TestHandleTerminateSessionRemovesIt(t *testing.T) {
	s, mgr := newTestServer(t)
	sess, adapter := newTestSession(t, "default")
	if err := mgr.Add(sess); err != nil {
		t.Fatalf("Add: %v", err)
	}

	done := make(chan struct{})
	go func() { defer close(done); adapter.handleDisconnect(t) }()

	res, err := s.handleTerminateSession(context.Background(), newRequest(map[string]interface{}{
		"sessionId": "default",
	}))
	if err != nil {
		t.Fatalf("handleTerminateSession: %v", err)
	}
	<-done
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	if _, err := mgr.Get("default"); err == nil {
		t.Fatal("expected session to be removed from the manager")
	}
}

func TestHandleAttachDisabledByConfig(t *testing.T) {
	s, _ := newTestServer(t)
	s.config.AllowAttach = false

	res, err := s.handleAttach(context.Background(), newRequest(map[string]interface{}{
		"processId": float64(1234),
	}))
	if err != nil {
		t.Fatalf("handleAttach: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result when attach is disabled by configuration")
	}
}

func TestHandleStatusAndOutputNeedNoAdapterResponse(t *testing.T) {
	s, mgr := newTestServer(t)
	sess, _ := newTestSession(t, "default")
	if err := mgr.Add(sess); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sess.Note("watch", "rebuild detected")

	res, err := s.handleStatus(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("handleStatus: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	res, err = s.handleOutput(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("handleOutput: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if text == "" {
		t.Fatal("expected non-empty output listing")
	}
}

func TestHandleScopesMissingFrameID(t *testing.T) {
	s, mgr := newTestServer(t)
	sess, _ := newTestSession(t, "default")
	if err := mgr.Add(sess); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := s.handleScopes(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("handleScopes: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing 'frameId' parameter")
	}
}

func TestHandleLaunchMissingProgramParam(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleLaunch(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("handleLaunch: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing 'program' parameter")
	}
}

func TestHandleInvokeMissingRequiredParams(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleInvoke(context.Background(), newRequest(map[string]interface{}{
		"assembly": "/app/Lib.dll",
	}))
	if err != nil {
		t.Fatalf("handleInvoke: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing 'type'/'method' parameters")
	}
}
