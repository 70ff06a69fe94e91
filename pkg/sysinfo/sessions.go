package sysinfo

import (
	"strconv"
	"strings"
)

// parseQuser reads the table printed by `quser` / `query user`:
//
//	 USERNAME   SESSIONNAME  ID  STATE   IDLE TIME  LOGON TIME
//	>jdoe       console       1  Active      none   10/18/2026 8:01 AM
//
// Disconnected sessions leave SESSIONNAME blank.
func parseQuser(out string) []Session {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return nil
	}
	sessionCol := strings.Index(strings.ToUpper(lines[0]), "SESSIONNAME")
	if sessionCol < 0 {
		return nil
	}

	var sessions []Session
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" || len(line) <= sessionCol {
			continue
		}
		user := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[:sessionCol]), ">"))
		rest := strings.Fields(line[sessionCol:])
		if user == "" || len(rest) < 3 {
			continue
		}
		var terminal string
		if _, err := strconv.Atoi(rest[0]); err != nil {
			terminal, rest = rest[0], rest[1:]
		}
		if len(rest) < 3 {
			continue
		}
		sessions = append(sessions, Session{
			User:      user,
			Terminal:  terminal,
			ID:        rest[0],
			State:     rest[1],
			Idle:      rest[2],
			LogonTime: strings.Join(rest[3:], " "),
		})
	}
	return sessions
}
