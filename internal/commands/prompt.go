package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

// confirm asks a y/N question. --yes answers for the user; input that is
// not a terminal answers no.
func (c *cli) confirm(out io.Writer) attendance.ConfirmFunc {
	return func(prompt string) bool {
		if c.yes {
			return true
		}
		if f, ok := c.in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			fmt.Fprintf(out, "%s (not a terminal, pass --yes to confirm)\n", prompt)
			return false
		}

		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := c.reader().ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// reader buffers c.in once so consecutive prompts share it.
func (c *cli) reader() *bufio.Reader {
	if c.buffered == nil {
		c.buffered = bufio.NewReader(c.in)
	}
	return c.buffered
}
