package utils

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/miniagent/internal/models"
)

// ShortenedOutput returns the first maxLines lines of out, with a note of how
// many were left out.
func ShortenedOutput(out string, maxLines int) string {
	if maxLines <= 0 {
		return out
	}
	lines := strings.Split(out, "\n")
	if len(lines) <= maxLines {
		return out
	}
	return fmt.Sprintf("%v\n...and %v more lines", strings.Join(lines[:maxLines], "\n"), len(lines)-maxLines)
}

// AttemptPrettyPrint by first checking if the glow command is available, and if so, pretty print the chat message
// if not found, simply print the message as is
func AttemptPrettyPrint(out io.Writer, chatMessage models.Message, username string, raw bool) error {
	if raw {
		_, err := fmt.Fprintln(out, chatMessage.Content)
		return err
	}
	role := chatMessage.Role
	color := ancli.BLUE
	switch chatMessage.Role {
	case "tool":
		color = ancli.MAGENTA
	case "user":
		color = ancli.CYAN
		role = username
	}
	cmd := exec.Command("glow", "--version")
	if err := cmd.Run(); err != nil {
		_, err := fmt.Fprintf(out, "%v: %v\n", ancli.ColoredMessage(color, role), chatMessage.Content)
		return err
	}

	cmd = exec.Command("glow")
	cmd.Stdin = bytes.NewBufferString(chatMessage.Content)
	cmd.Stdout = out
	fmt.Fprintf(out, "%v:", ancli.ColoredMessage(color, role))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run glow: %w", err)
	}
	return nil
}
