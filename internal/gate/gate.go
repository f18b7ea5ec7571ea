// internal/gate/gate.go

// Package gate implements the confirmation step guarding destructive
// operations. A declined prompt is a normal negative outcome for the calling
// operation, surfaced as ErrDeclined so callers can report "cancelled"
// instead of a failure.
package gate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDeclined is returned by operations whose confirmation prompt was not
// answered affirmatively (and that were not forced).
var ErrDeclined = errors.New("operation cancelled")

// Gate prompts for explicit confirmation before destructive operations.
// In and Out are injectable so tests can script the interaction.
type Gate struct {
	In  io.Reader
	Out io.Writer
}

// New returns a Gate reading from in and prompting on out.
func New(in io.Reader, out io.Writer) *Gate {
	return &Gate{In: in, Out: out}
}

// Confirm surfaces prompt and blocks for a response. Only an explicit "y" or
// "yes" (case-insensitive) counts as affirmation; anything else, including
// read errors and EOF, declines.
func (g *Gate) Confirm(prompt string) bool {
	fmt.Fprintf(g.Out, "%s [y/N] ", prompt)
	reader := bufio.NewReader(g.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// Allow runs the gate for a destructive operation. force bypasses the prompt
// entirely. A nil gate with force unset declines, so non-interactive callers
// must opt in explicitly.
func Allow(g *Gate, force bool, prompt string) bool {
	if force {
		return true
	}
	if g == nil {
		return false
	}
	return g.Confirm(prompt)
}
