package procutil

import (
	"bufio"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProcInfo is one row of `ps -e -o pid,ppid,args`.
type ProcInfo struct {
	PID  int
	PPID int
	Args string
}

// Snapshot lists every process visible to `ps`, parsed into ProcInfo rows.
// It shells out rather than reading /proc directly so the same code path
// works on both Linux and macOS driver hosts.
func Snapshot() ([]ProcInfo, error) {
	cmd := exec.Command("ps", "-e", "-o", "pid=,ppid=,args=")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ps failed: %w", err)
	}

	var procs []ProcInfo
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// ps right-aligns the pid/ppid columns with runs of spaces, so split
		// on whitespace and keep everything after the ppid as the command line.
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		rest := strings.TrimSpace(line[len(fields[0]):])
		args := strings.TrimSpace(rest[len(fields[1]):])
		procs = append(procs, ProcInfo{PID: pid, PPID: ppid, Args: args})
	}
	return procs, scanner.Err()
}

// Descendants returns every pid in procs transitively parented by rootPID,
// rootPID included if present.
func Descendants(procs []ProcInfo, rootPID int) []ProcInfo {
	byParent := make(map[int][]ProcInfo)
	for _, p := range procs {
		byParent[p.PPID] = append(byParent[p.PPID], p)
	}

	var out []ProcInfo
	var walk func(pid int)
	seen := make(map[int]bool)
	walk = func(pid int) {
		if seen[pid] {
			return
		}
		seen[pid] = true
		for _, p := range procs {
			if p.PID == pid {
				out = append(out, p)
				break
			}
		}
		for _, child := range byParent[pid] {
			walk(child.PID)
		}
	}
	walk(rootPID)
	return out
}

// FindDebuggee applies the hot-reload debuggee discovery rule: the first
// descendant of driverPID whose command line contains binDirMarker (the
// project's build output directory, e.g. "MyApp/bin/") and does not
// contain any of the watch-tooling substrings ("dotnet watch" itself,
// "MSBuild", the driver's own invocation, or a stray "grep" from a prior
// probe). Returns 0 if no match is found.
func FindDebuggee(procs []ProcInfo, driverPID int, binDirMarker string) int {
	exclude := []string{"watch", "MSBuild", "grep"}

	for _, p := range Descendants(procs, driverPID) {
		if p.PID == driverPID {
			continue
		}
		if !strings.Contains(p.Args, binDirMarker) {
			continue
		}
		excluded := false
		for _, substr := range exclude {
			if strings.Contains(p.Args, substr) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		return p.PID
	}
	return 0
}

// PPID returns the parent pid of pid as reported by the most recent
// Snapshot, or 0 if pid isn't present.
func PPID(procs []ProcInfo, pid int) int {
	for _, p := range procs {
		if p.PID == pid {
			return p.PPID
		}
	}
	return 0
}

// IsOrphaned reports whether pid has been reparented to the init process
// (ppid 1) — the signature of a driver that killed its wrapper process but
// left the debuggee itself running, per the watch controller's orphan
// reconnect trigger.
func IsOrphaned(procs []ProcInfo, pid int) bool {
	return PPID(procs, pid) == 1
}
