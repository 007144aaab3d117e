package monitor

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// CLIMonitor implements the Monitor interface, providing a direct
// terminal-based visualization of turns flowing through all channels.
type CLIMonitor struct {
	writer io.Writer // The output destination, typically os.Stdout.
}

// NewCLIMonitor creates a new CLI monitor
func NewCLIMonitor() *CLIMonitor {
	return &CLIMonitor{
		writer: os.Stdout,
	}
}

// Start starts the CLI monitor
func (m *CLIMonitor) Start() error {
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	fmt.Fprintln(m.writer, "💬 CLI Monitor Active - All channel turns will appear here")
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	return nil
}

// Stop stops the CLI monitor
func (m *CLIMonitor) Stop() error {
	return nil
}

// OnTurn receives and displays a completed turn
func (m *CLIMonitor) OnTurn(ev TurnEvent) {
	timestamp := ev.Timestamp.Format("2006-01-02 15:04:05")

	// Use gray color for timestamp
	fmt.Fprintf(m.writer, "\033[90m[%s]\033[0m [%s/%s] %s\n",
		timestamp, ev.Channel, shortID(ev.SessionID), truncate(ev.UserMessage, 120))
	fmt.Fprintf(m.writer, "\033[90m[%s]\033[0m [AI] %s\n",
		timestamp, truncate(ev.Reply, 120))

	if len(ev.ToolsCalled) > 0 {
		fmt.Fprintf(m.writer, "\033[90m[%s]\033[0m [TOOLS] %s\n",
			timestamp, strings.Join(ev.ToolsCalled, ", "))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
