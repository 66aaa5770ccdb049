package dap

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/go-dap"
)

// StoppedInfo describes why the debuggee stopped.
type StoppedInfo struct {
	Reason      string
	ThreadID    int
	Description string
	AllStopped  bool
}

// Client provides a high-level API for DAP operations against a single
// transport. A Client survives a hot-reload reattach: Rebind swaps in a
// fresh Transport connected to the rebuilt debuggee without discarding the
// listener registry or in-flight caller state.
type Client struct {
	mu        sync.Mutex
	transport *Transport

	pendingRequests map[int]chan dap.Message

	// listeners maps an event name (e.g. "stopped", "output") to the
	// handlers subscribed to it; the empty string is the wildcard bucket
	// that receives every event regardless of name.
	listeners map[string][]func(dap.Event)

	capabilities dap.Capabilities

	initialized     chan struct{}
	initializedOnce sync.Once

	stoppedChan chan *StoppedInfo
	stoppedMu   sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a new DAP client reading and writing through transport.
func NewClient(transport *Transport) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		transport:       transport,
		pendingRequests: make(map[int]chan dap.Message),
		listeners:       make(map[string][]func(dap.Event)),
		initialized:     make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
	}

	c.wg.Add(1)
	go c.readLoop()

	return c
}

// On subscribes fn to events named name (e.g. "stopped", "continued",
// "output", "terminated"). Multiple listeners may subscribe to the same
// name; all are invoked, in subscription order.
func (c *Client) On(name string, fn func(dap.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[name] = append(c.listeners[name], fn)
}

// OnAny subscribes fn to every event regardless of name.
func (c *Client) OnAny(fn func(dap.Event)) {
	c.On("", fn)
}

// Rebind replaces the underlying transport, used after a hot-reload
// reconnect once the watch controller has relaunched the debuggee and
// completed a fresh initialize/launch handshake on a new Transport.
// Pending requests from the old transport are abandoned; callers of
// in-flight requests get "DAP client closed" when the old context is
// cancelled.
func (c *Client) Rebind(transport *Transport) {
	c.cancel()
	c.wg.Wait()

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.transport = transport
	c.pendingRequests = make(map[int]chan dap.Message)
	c.ctx = ctx
	c.cancel = cancel
	c.mu.Unlock()

	c.initializedOnce = sync.Once{}
	c.initialized = make(chan struct{})

	c.wg.Add(1)
	go c.readLoop()
}

// readLoop continuously reads messages from the transport.
func (c *Client) readLoop() {
	defer c.wg.Done()

	consecutiveErrors := 0
	const maxConsecutiveErrors = 5

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		msg, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
				consecutiveErrors++
				log.Printf("dap transport error (attempt %d/%d): %v", consecutiveErrors, maxConsecutiveErrors, err)

				if consecutiveErrors >= maxConsecutiveErrors {
					log.Printf("dap transport: too many consecutive errors, stopping read loop")
					c.cancel()
					return
				}
				continue
			}
		}

		consecutiveErrors = 0
		c.handleMessage(msg)
	}
}

// dispatch invokes every listener registered for ev's event name plus the
// wildcard bucket.
func (c *Client) dispatch(ev dap.Event, name string) {
	c.mu.Lock()
	handlers := append([]func(dap.Event){}, c.listeners[name]...)
	handlers = append(handlers, c.listeners[""]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// handleMessage routes incoming messages to the appropriate handler.
func (c *Client) handleMessage(msg dap.Message) {
	var requestSeq int
	var isResponse bool

	switch m := msg.(type) {
	case *dap.InitializeResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.LaunchResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.AttachResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.DisconnectResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.TerminateResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ConfigurationDoneResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ThreadsResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.StackTraceResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ScopesResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.VariablesResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.EvaluateResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.SetBreakpointsResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.SetFunctionBreakpointsResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ContinueResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.NextResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.StepInResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.StepOutResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.PauseResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.SetVariableResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.SourceResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ModulesResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ErrorResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.InitializedEvent:
		c.initializedOnce.Do(func() {
			close(c.initialized)
		})
		c.dispatch(m, "initialized")
		return
	case *dap.StoppedEvent:
		info := &StoppedInfo{
			Reason:      m.Body.Reason,
			ThreadID:    m.Body.ThreadId,
			Description: m.Body.Description,
			AllStopped:  m.Body.AllThreadsStopped,
		}
		c.stoppedMu.Lock()
		if c.stoppedChan != nil {
			select {
			case c.stoppedChan <- info:
			default:
			}
		}
		c.stoppedMu.Unlock()
		c.dispatch(m, "stopped")
		return
	case *dap.OutputEvent:
		c.dispatch(m, "output")
		return
	case *dap.TerminatedEvent:
		c.dispatch(m, "terminated")
		return
	case *dap.ExitedEvent:
		c.dispatch(m, "exited")
		return
	case *dap.ContinuedEvent:
		c.dispatch(m, "continued")
		return
	case *dap.ThreadEvent:
		c.dispatch(m, "thread")
		return
	case *dap.BreakpointEvent:
		c.dispatch(m, "breakpoint")
		return
	case *dap.ModuleEvent:
		c.dispatch(m, "module")
		return
	default:
		if ev, ok := msg.(dap.EventMessage); ok {
			c.dispatch(ev, ev.GetEvent().Event)
			return
		}
	}

	if isResponse {
		c.mu.Lock()
		if ch, ok := c.pendingRequests[requestSeq]; ok {
			ch <- msg
			delete(c.pendingRequests, requestSeq)
		}
		c.mu.Unlock()
	}
}

// sendRequest sends a request and waits for its response with no deadline
// of its own: a slow-but-alive debugger (a large evaluate, a deep stack
// trace) is expected to take as long as it takes. The only way this
// returns early is the client's own context being cancelled — on Close,
// on Rebind, or when the read loop gives up on a dead transport, all of
// which reject every still-pending request with "DAP client closed".
// Callers that want a deadline impose one themselves via context.
func (c *Client) sendRequest(req dap.RequestMessage) (dap.Message, error) {
	seq := c.transport.NextSeq()

	switch r := req.(type) {
	case *dap.InitializeRequest:
		r.Seq = seq
	case *dap.LaunchRequest:
		r.Seq = seq
	case *dap.AttachRequest:
		r.Seq = seq
	case *dap.DisconnectRequest:
		r.Seq = seq
	case *dap.TerminateRequest:
		r.Seq = seq
	case *dap.ConfigurationDoneRequest:
		r.Seq = seq
	case *dap.ThreadsRequest:
		r.Seq = seq
	case *dap.StackTraceRequest:
		r.Seq = seq
	case *dap.ScopesRequest:
		r.Seq = seq
	case *dap.VariablesRequest:
		r.Seq = seq
	case *dap.EvaluateRequest:
		r.Seq = seq
	case *dap.SetBreakpointsRequest:
		r.Seq = seq
	case *dap.SetFunctionBreakpointsRequest:
		r.Seq = seq
	case *dap.ContinueRequest:
		r.Seq = seq
	case *dap.NextRequest:
		r.Seq = seq
	case *dap.StepInRequest:
		r.Seq = seq
	case *dap.StepOutRequest:
		r.Seq = seq
	case *dap.PauseRequest:
		r.Seq = seq
	case *dap.SetVariableRequest:
		r.Seq = seq
	case *dap.SourceRequest:
		r.Seq = seq
	case *dap.ModulesRequest:
		r.Seq = seq
	}

	respCh := make(chan dap.Message, 1)
	c.mu.Lock()
	transport := c.transport
	c.pendingRequests[seq] = respCh
	ctx := c.ctx
	c.mu.Unlock()

	if err := transport.Send(req); err != nil {
		c.mu.Lock()
		delete(c.pendingRequests, seq)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("DAP client closed")
	}
}

// Initialize sends the initialize request.
func (c *Client) Initialize(clientID, clientName string) (*dap.InitializeResponse, error) {
	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{
			ClientID:                     clientID,
			ClientName:                   clientName,
			AdapterID:                    "netdbg-mcp",
			Locale:                       "en-US",
			LinesStartAt1:                true,
			ColumnsStartAt1:              true,
			PathFormat:                   "path",
			SupportsVariableType:         true,
			SupportsVariablePaging:       true,
			SupportsRunInTerminalRequest: false,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	initResp, ok := resp.(*dap.InitializeResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !initResp.Success {
		return nil, fmt.Errorf("initialize failed: %s", initResp.Message)
	}

	c.capabilities = initResp.Body

	return initResp, nil
}

// WaitInitialized waits for the initialized event with a timeout.
func (c *Client) WaitInitialized(timeout time.Duration) error {
	select {
	case <-c.initialized:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for initialized event")
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// Launch sends a launch request. netcoredbg, like most DAP adapters,
// doesn't respond to launch until ConfigurationDone has been sent, so
// callers should wait for the initialized event and send
// ConfigurationDone before this call returns.
func (c *Client) Launch(args map[string]interface{}) (*dap.LaunchResponse, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal launch args: %w", err)
	}

	req := &dap.LaunchRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "launch",
		},
		Arguments: argsJSON,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	launchResp, ok := resp.(*dap.LaunchResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !launchResp.Success {
		return nil, fmt.Errorf("launch failed: %s", launchResp.Message)
	}

	return launchResp, nil
}

// Attach sends an attach request.
func (c *Client) Attach(args map[string]interface{}) (*dap.AttachResponse, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attach args: %w", err)
	}

	req := &dap.AttachRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "attach",
		},
		Arguments: argsJSON,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	attachResp, ok := resp.(*dap.AttachResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !attachResp.Success {
		return nil, fmt.Errorf("attach failed: %s", attachResp.Message)
	}

	return attachResp, nil
}

// ConfigurationDone signals that configuration is complete.
func (c *Client) ConfigurationDone() error {
	req := &dap.ConfigurationDoneRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "configurationDone",
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	configResp, ok := resp.(*dap.ConfigurationDoneResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !configResp.Success {
		return fmt.Errorf("configurationDone failed: %s", configResp.Message)
	}

	return nil
}

// Disconnect ends the debug session.
func (c *Client) Disconnect(terminateDebuggee bool) error {
	req := &dap.DisconnectRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "disconnect",
		},
		Arguments: &dap.DisconnectArguments{
			TerminateDebuggee: terminateDebuggee,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	disconnectResp, ok := resp.(*dap.DisconnectResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !disconnectResp.Success {
		return fmt.Errorf("disconnect failed: %s", disconnectResp.Message)
	}

	return nil
}

// Terminate ends the debuggee gracefully via the `terminate` request if
// the adapter advertised support for it in its capabilities; otherwise it
// falls back to disconnect(terminateDebuggee=true), the same fallback the
// DAP spec itself documents for adapters that never implemented a
// dedicated terminate request.
func (c *Client) Terminate() error {
	if !c.capabilities.SupportsTerminateRequest {
		return c.Disconnect(true)
	}

	req := &dap.TerminateRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "terminate",
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	termResp, ok := resp.(*dap.TerminateResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}
	if !termResp.Success {
		return fmt.Errorf("terminate failed: %s", termResp.Message)
	}
	return nil
}

// Threads gets all threads.
func (c *Client) Threads() ([]dap.Thread, error) {
	req := &dap.ThreadsRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "threads",
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	threadsResp, ok := resp.(*dap.ThreadsResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !threadsResp.Success {
		return nil, fmt.Errorf("threads request failed: %s", threadsResp.Message)
	}

	return threadsResp.Body.Threads, nil
}

// StackTrace gets the stack trace for a thread.
func (c *Client) StackTrace(threadID, startFrame, levels int) ([]dap.StackFrame, int, error) {
	req := &dap.StackTraceRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "stackTrace",
		},
		Arguments: dap.StackTraceArguments{
			ThreadId:   threadID,
			StartFrame: startFrame,
			Levels:     levels,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, 0, err
	}

	stackResp, ok := resp.(*dap.StackTraceResponse)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !stackResp.Success {
		return nil, 0, fmt.Errorf("stackTrace request failed: %s", stackResp.Message)
	}

	return stackResp.Body.StackFrames, stackResp.Body.TotalFrames, nil
}

// Scopes gets the scopes for a stack frame.
func (c *Client) Scopes(frameID int) ([]dap.Scope, error) {
	req := &dap.ScopesRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "scopes",
		},
		Arguments: dap.ScopesArguments{
			FrameId: frameID,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	scopesResp, ok := resp.(*dap.ScopesResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !scopesResp.Success {
		return nil, fmt.Errorf("scopes request failed: %s", scopesResp.Message)
	}

	return scopesResp.Body.Scopes, nil
}

// Variables gets variables for a reference.
func (c *Client) Variables(variablesRef int, filter string, start, count int) ([]dap.Variable, error) {
	args := dap.VariablesArguments{
		VariablesReference: variablesRef,
	}
	if filter != "" {
		args.Filter = filter
	}
	if start > 0 {
		args.Start = start
	}
	if count > 0 {
		args.Count = count
	}

	req := &dap.VariablesRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "variables",
		},
		Arguments: args,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	varsResp, ok := resp.(*dap.VariablesResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !varsResp.Success {
		return nil, fmt.Errorf("variables request failed: %s", varsResp.Message)
	}

	return varsResp.Body.Variables, nil
}

// Evaluate evaluates an expression in the given frame.
func (c *Client) Evaluate(expression string, frameID int, context string) (*dap.EvaluateResponseBody, error) {
	req := &dap.EvaluateRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "evaluate",
		},
		Arguments: dap.EvaluateArguments{
			Expression: expression,
			FrameId:    frameID,
			Context:    context,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	evalResp, ok := resp.(*dap.EvaluateResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !evalResp.Success {
		return nil, fmt.Errorf("evaluate failed: %s", evalResp.Message)
	}

	return &evalResp.Body, nil
}

// SetBreakpoints sets breakpoints in a source file. The call is always a
// full replacement for that file, per the DAP contract — callers that
// track breakpoints incrementally (internal/session) must resend the
// complete set every time.
func (c *Client) SetBreakpoints(source dap.Source, breakpoints []dap.SourceBreakpoint) ([]dap.Breakpoint, error) {
	req := &dap.SetBreakpointsRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "setBreakpoints",
		},
		Arguments: dap.SetBreakpointsArguments{
			Source:      source,
			Breakpoints: breakpoints,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	bpResp, ok := resp.(*dap.SetBreakpointsResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !bpResp.Success {
		return nil, fmt.Errorf("setBreakpoints failed: %s", bpResp.Message)
	}

	return bpResp.Body.Breakpoints, nil
}

// Continue resumes execution of threadID.
func (c *Client) Continue(threadID int) (bool, error) {
	req := &dap.ContinueRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "continue",
		},
		Arguments: dap.ContinueArguments{
			ThreadId: threadID,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return false, err
	}

	contResp, ok := resp.(*dap.ContinueResponse)
	if !ok {
		return false, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !contResp.Success {
		return false, fmt.Errorf("continue failed: %s", contResp.Message)
	}

	return contResp.Body.AllThreadsContinued, nil
}

// Next steps over the current line.
func (c *Client) Next(threadID int) error {
	req := &dap.NextRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "next",
		},
		Arguments: dap.NextArguments{
			ThreadId: threadID,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	nextResp, ok := resp.(*dap.NextResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !nextResp.Success {
		return fmt.Errorf("next failed: %s", nextResp.Message)
	}

	return nil
}

// StepIn steps into the call on the current line.
func (c *Client) StepIn(threadID int) error {
	req := &dap.StepInRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "stepIn",
		},
		Arguments: dap.StepInArguments{
			ThreadId: threadID,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	stepResp, ok := resp.(*dap.StepInResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !stepResp.Success {
		return fmt.Errorf("stepIn failed: %s", stepResp.Message)
	}

	return nil
}

// StepOut steps out of the current function.
func (c *Client) StepOut(threadID int) error {
	req := &dap.StepOutRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "stepOut",
		},
		Arguments: dap.StepOutArguments{
			ThreadId: threadID,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	stepResp, ok := resp.(*dap.StepOutResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !stepResp.Success {
		return fmt.Errorf("stepOut failed: %s", stepResp.Message)
	}

	return nil
}

// Pause suspends the given thread (or all threads, adapter-dependent).
func (c *Client) Pause(threadID int) error {
	req := &dap.PauseRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "pause",
		},
		Arguments: dap.PauseArguments{
			ThreadId: threadID,
		},
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	pauseResp, ok := resp.(*dap.PauseResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !pauseResp.Success {
		return fmt.Errorf("pause failed: %s", pauseResp.Message)
	}

	return nil
}

// Capabilities returns the capabilities reported by the last initialize
// response (or the zero value, before one was sent).
func (c *Client) Capabilities() dap.Capabilities {
	return c.capabilities
}

// WaitForStopped waits for the debuggee to stop (breakpoint hit, step
// complete, exception, pause).
func (c *Client) WaitForStopped(timeout time.Duration) (*StoppedInfo, error) {
	stoppedCh := make(chan *StoppedInfo, 1)

	c.stoppedMu.Lock()
	c.stoppedChan = stoppedCh
	c.stoppedMu.Unlock()

	defer func() {
		c.stoppedMu.Lock()
		c.stoppedChan = nil
		c.stoppedMu.Unlock()
	}()

	select {
	case info := <-stoppedCh:
		return info, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for stopped event")
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

// Close shuts down the client and its transport.
func (c *Client) Close() error {
	c.cancel()
	c.wg.Wait()
	return c.transport.Close()
}
