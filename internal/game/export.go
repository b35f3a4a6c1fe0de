package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportSession appends a plain-text record of a finished game to the
// results file: seating, full transcript, secret location and verdict.
func ExportSession(s *Session, filename string) error {
	snap := s.Snapshot()
	if snap.Verdict == nil {
		return fmt.Errorf("session %s is still running", snap.Code)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Spyfall Game Record - Session %s\n", snap.Code))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString(fmt.Sprintf("Secret location: %s\n", s.Location()))
	sb.WriteString("Participants:\n")
	for _, p := range snap.Participants {
		status := ""
		if !p.Alive {
			status = " (eliminated)"
		}
		sb.WriteString(fmt.Sprintf("- %s: %s [%s]%s\n", p.Name, p.Role, p.Faction, status))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Transcript (%d rounds played):\n", snap.Round))
	for _, e := range snap.Transcript {
		switch e.Kind {
		case EntryQuestion:
			sb.WriteString(fmt.Sprintf("  %s -> %s: %s\n", e.Asker, e.Target, e.Text))
		case EntryAnswer:
			sb.WriteString(fmt.Sprintf("  %s: %s\n", e.Responder, e.Text))
		case EntryAction:
			sb.WriteString(fmt.Sprintf("  ! %s\n", e.Text))
		}
	}

	sb.WriteString(fmt.Sprintf("\nVerdict: %s win - %s\n", snap.Verdict.Winner, snap.Verdict.Reason))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
