package session

import (
	godap "github.com/google/go-dap"

	"github.com/opendbg/netdbg-mcp/internal/dap"
)

// resolveThreadIDLocked applies the default thread-id resolution order: an
// explicit argument wins, otherwise the thread id of the last stop event,
// otherwise 1. Callers invoke this from inside withClient's callback,
// where s.mu is already held, so it must not lock again.
func (s *Session) resolveThreadIDLocked(explicit int) int {
	if explicit != 0 {
		return explicit
	}
	if s.lastStop != nil && s.lastStop.ThreadID != 0 {
		return s.lastStop.ThreadID
	}
	return 1
}

// clearStop drops the cached last-stop state, used after issuing a resume
// so Status reports "running" even before the debugger's own "continued"
// event (which netcoredbg doesn't always send) arrives.
func (s *Session) clearStop() {
	s.mu.Lock()
	s.lastStop = nil
	s.mu.Unlock()
}

// Continue resumes execution of threadID (or the implicit default).
func (s *Session) Continue(threadID int) (bool, error) {
	var allThreads bool
	err := s.withClient(func(c *dap.Client) error {
		tid := s.resolveThreadIDLocked(threadID)
		all, err := c.Continue(tid)
		allThreads = all
		return err
	})
	if err != nil {
		return false, err
	}
	s.clearStop()
	return allThreads, nil
}

// Pause suspends threadID (or the implicit default).
func (s *Session) Pause(threadID int) error {
	return s.withClient(func(c *dap.Client) error {
		return c.Pause(s.resolveThreadIDLocked(threadID))
	})
}

// StepOver steps over the current line on threadID (or the implicit
// default).
func (s *Session) StepOver(threadID int) error {
	err := s.withClient(func(c *dap.Client) error {
		return c.Next(s.resolveThreadIDLocked(threadID))
	})
	if err != nil {
		return err
	}
	s.clearStop()
	return nil
}

// StepInto steps into the call on the current line of threadID (or the
// implicit default).
func (s *Session) StepInto(threadID int) error {
	err := s.withClient(func(c *dap.Client) error {
		return c.StepIn(s.resolveThreadIDLocked(threadID))
	})
	if err != nil {
		return err
	}
	s.clearStop()
	return nil
}

// StepOut steps out of the current function on threadID (or the implicit
// default).
func (s *Session) StepOut(threadID int) error {
	err := s.withClient(func(c *dap.Client) error {
		return c.StepOut(s.resolveThreadIDLocked(threadID))
	})
	if err != nil {
		return err
	}
	s.clearStop()
	return nil
}

// Threads lists every thread the debugger currently reports.
func (s *Session) Threads() ([]godap.Thread, error) {
	var threads []godap.Thread
	err := s.withClient(func(c *dap.Client) error {
		var err error
		threads, err = c.Threads()
		return err
	})
	return threads, err
}

// StackTrace returns up to depth frames of threadID (or the implicit
// default) starting at startFrame, plus the total frame count the
// debugger reports.
func (s *Session) StackTrace(threadID, startFrame, depth int) ([]godap.StackFrame, int, error) {
	var frames []godap.StackFrame
	var total int
	err := s.withClient(func(c *dap.Client) error {
		var err error
		frames, total, err = c.StackTrace(s.resolveThreadIDLocked(threadID), startFrame, depth)
		return err
	})
	return frames, total, err
}

// Scopes returns the variable scopes visible in stack frame frameID.
func (s *Session) Scopes(frameID int) ([]godap.Scope, error) {
	var scopes []godap.Scope
	err := s.withClient(func(c *dap.Client) error {
		var err error
		scopes, err = c.Scopes(frameID)
		return err
	})
	return scopes, err
}

// Variables returns the children of the variables container named by
// reference.
func (s *Session) Variables(reference int) ([]godap.Variable, error) {
	var vars []godap.Variable
	err := s.withClient(func(c *dap.Client) error {
		var err error
		vars, err = c.Variables(reference, "", 0, 0)
		return err
	})
	return vars, err
}

// Evaluate evaluates expression in the context of frameID (0 means no
// frame, i.e. global/module scope where the adapter supports it).
func (s *Session) Evaluate(expression string, frameID int) (*godap.EvaluateResponseBody, error) {
	var result *godap.EvaluateResponseBody
	err := s.withClient(func(c *dap.Client) error {
		var err error
		result, err = c.Evaluate(expression, frameID, "repl")
		return err
	})
	return result, err
}
