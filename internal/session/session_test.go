package session

import (
	"bufio"
	"net"
	"testing"
	"time"

	godap "github.com/google/go-dap"

	"github.com/opendbg/netdbg-mcp/internal/dap"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

// fakeAdapter is a minimal stand-in netcoredbg speaking real DAP framing
// over an in-memory net.Pipe, used to drive a *session.Session through a
// live *dap.Client without spawning a real debugger process.
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

// handleSetBreakpoints replies to one setBreakpoints request, echoing each
// requested line back as verified.
func (f *fakeAdapter) handleSetBreakpoints(t *testing.T) *godap.SetBreakpointsRequest {
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
	return req
}

func newTestSessionWithAdapter(t *testing.T) (*Session, *fakeAdapter) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
	})

	transport := dap.NewStdioTransport(clientConn, clientConn)
	client := dap.NewClient(transport)
	t.Cleanup(func() { _ = client.Close() })

	sess := New("test-session", types.SessionConfig{Mode: types.ModeLaunch}, client, nil, 4242)
	return sess, newFakeAdapter(serverConn)
}

func TestSetBreakpointThenListBreakpoints(t *testing.T) {
	sess, adapter := newTestSessionWithAdapter(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		adapter.handleSetBreakpoints(t)
	}()

	bp, err := sess.SetBreakpoint("/src/Main.cs", 10, "")
	if err != nil {
		t.Fatalf("SetBreakpoint: %v", err)
	}
	<-done
	if !bp.Verified || bp.Line != 10 {
		t.Fatalf("unexpected breakpoint echo: %+v", bp)
	}

	all := sess.ListBreakpoints()
	bps := all["/src/Main.cs"]
	if len(bps) != 1 || bps[0].Line != 10 {
		t.Fatalf("ListBreakpoints() = %+v, want one breakpoint at line 10", all)
	}
}

func TestSetBreakpointConditionOverwritesExisting(t *testing.T) {
	sess, adapter := newTestSessionWithAdapter(t)

	go func() { adapter.handleSetBreakpoints(t) }()
	if _, err := sess.SetBreakpoint("/src/Main.cs", 10, "x > 1"); err != nil {
		t.Fatalf("first SetBreakpoint: %v", err)
	}

	go func() { adapter.handleSetBreakpoints(t) }()
	if _, err := sess.SetBreakpoint("/src/Main.cs", 10, "x > 2"); err != nil {
		t.Fatalf("second SetBreakpoint: %v", err)
	}

	bps := sess.ListBreakpoints()["/src/Main.cs"]
	if len(bps) != 1 {
		t.Fatalf("expected condition update to replace, not append: %+v", bps)
	}
	if bps[0].Condition != "x > 2" {
		t.Fatalf("expected condition 'x > 2', got %q", bps[0].Condition)
	}
}

func TestRemoveBreakpointRestoresPriorSet(t *testing.T) {
	sess, adapter := newTestSessionWithAdapter(t)

	go func() { adapter.handleSetBreakpoints(t) }()
	if _, err := sess.SetBreakpoint("/src/Main.cs", 10, ""); err != nil {
		t.Fatalf("SetBreakpoint: %v", err)
	}

	var removeReq *godap.SetBreakpointsRequest
	done := make(chan struct{})
	go func() {
		defer close(done)
		removeReq = adapter.handleSetBreakpoints(t)
	}()
	if err := sess.RemoveBreakpoint("/src/Main.cs", 10); err != nil {
		t.Fatalf("RemoveBreakpoint: %v", err)
	}
	<-done

	if len(removeReq.Arguments.Breakpoints) != 0 {
		t.Fatalf("expected the resent set after removal to be empty, got %+v", removeReq.Arguments.Breakpoints)
	}

	all := sess.ListBreakpoints()
	if len(all["/src/Main.cs"]) != 0 {
		t.Fatalf("expected no breakpoints left for the file, got %+v", all)
	}
}

func TestRemoveNonexistentBreakpointFails(t *testing.T) {
	sess, _ := newTestSessionWithAdapter(t)

	// No breakpoint was ever set at this path:line, so RemoveBreakpoint
	// must fail before it ever resends the (unchanged) set — no fake
	// adapter responder is needed since no DAP request should be sent.
	err := sess.RemoveBreakpoint("/src/Main.cs", 10)
	if err == nil {
		t.Fatal("expected error removing a breakpoint that was never set")
	}
}

func TestOutputBufferCapsAt100Lines(t *testing.T) {
	sess, _ := newTestSessionWithAdapter(t)

	for i := 0; i < 150; i++ {
		sess.Note("watch", "line")
	}

	lines, total := sess.Output()
	if len(lines) != 100 {
		t.Fatalf("expected output buffer capped at 100, got %d", len(lines))
	}
	if total != 150 {
		t.Fatalf("expected outputSeen to count every line ever recorded, got %d", total)
	}
}

func TestStatusReflectsStopAndContinue(t *testing.T) {
	sess, adapter := newTestSessionWithAdapter(t)

	st := sess.Status()
	if st.State != types.StateRunning {
		t.Fatalf("expected initial state running, got %s", st.State)
	}

	adapter.send(t, &godap.StoppedEvent{
		Event: godap.Event{
			ProtocolMessage: godap.ProtocolMessage{Seq: 1, Type: "event"},
			Event:           "stopped",
		},
		Body: godap.StoppedEventBody{Reason: "breakpoint", ThreadId: 1},
	})

	waitFor(t, func() bool {
		st := sess.Status()
		return st.State == types.StateStopped && st.StoppedThreadID == 1
	})
	st = sess.Status()
	if st.StopReason != "breakpoint" {
		t.Fatalf("expected stop reason 'breakpoint', got %q", st.StopReason)
	}

	adapter.send(t, &godap.ContinuedEvent{
		Event: godap.Event{
			ProtocolMessage: godap.ProtocolMessage{Seq: 2, Type: "event"},
			Event:           "continued",
		},
		Body: godap.ContinuedEventBody{ThreadId: 1},
	})

	waitFor(t, func() bool {
		return sess.Status().State == types.StateRunning
	})
}

// waitFor polls cond until it's true or a short deadline passes, to avoid
// racing event dispatch (which happens on the client's read goroutine)
// against the assertion.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestNoteTagsOutputLines(t *testing.T) {
	sess, _ := newTestSessionWithAdapter(t)
	sess.Note("watch", "rebuild detected")

	lines, _ := sess.Output()
	if len(lines) != 1 || lines[0] != "[watch] rebuild detected" {
		t.Fatalf("unexpected output line: %v", lines)
	}
}

func TestTerminateMarksSessionNotRunning(t *testing.T) {
	sess, adapter := newTestSessionWithAdapter(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := adapter.readRequest(t).(*godap.DisconnectRequest)
		adapter.send(t, &godap.DisconnectResponse{
			Response: godap.Response{
				ProtocolMessage: godap.ProtocolMessage{Seq: req.Seq + 1, Type: "response"},
				RequestSeq:      req.Seq,
				Success:         true,
				Command:         "disconnect",
			},
		})
	}()

	if err := sess.Terminate(false); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect request")
	}

	if _, err := sess.Client(); err == nil {
		t.Fatal("expected Client() to fail after Terminate")
	}
	if _, err := sess.SetBreakpoint("/src/Main.cs", 1, ""); err == nil {
		t.Fatal("expected SetBreakpoint to fail after Terminate")
	}
}
