package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/attendance/internal/app"
)

func (c *cli) hashPasswordCmd() *cobra.Command {
	var overwrite, insecureUnmask bool
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Create the auth file with a hashed password (Argon2id)",
		Long: `Prompts for a username and password and writes username:hash to the
auth file (auth_file in config, AUTH_FILE, default ./auth.secret).
"attendance serve" then requires these credentials for every change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.ErrOrStderr()
			in := c.reader()

			fmt.Fprint(out, "Enter username: ")
			username, err := readLine(in)
			if err != nil {
				return fmt.Errorf("error reading username: %w", err)
			}
			if username == "" {
				return fmt.Errorf("username cannot be empty")
			}

			var password, passwordConfirm string
			if insecureUnmask || !isTerminal(c.in) {
				if insecureUnmask {
					fmt.Fprintln(out, "⚠️  WARNING: Password will be visible on screen!")
				}
				fmt.Fprint(out, "Enter password:   ")
				if password, err = readLine(in); err != nil {
					return fmt.Errorf("error reading password: %w", err)
				}
				fmt.Fprint(out, "Confirm password: ")
				if passwordConfirm, err = readLine(in); err != nil {
					return fmt.Errorf("error reading password confirmation: %w", err)
				}
			} else {
				// Masked mode with asterisks (default, secure)
				password = readPasswordWithMask(out, "Enter password:   ")
				passwordConfirm = readPasswordWithMask(out, "Confirm password: ")
			}

			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}
			if password != passwordConfirm {
				return fmt.Errorf("passwords do not match")
			}

			if err := app.CreateAuthFile(c.cfg.AuthFile, username, password, overwrite, c.confirm(out)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auth file written: %s\n", c.cfg.AuthFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing auth file without asking")
	cmd.Flags().BoolVar(&insecureUnmask, "insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	return cmd
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readPasswordWithMask reads password input and displays asterisks
func readPasswordWithMask(out io.Writer, prompt string) string {
	fmt.Fprint(out, prompt)
	fd := int(syscall.Stdin)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Fallback to hidden input if we can't set raw mode
		password, _ := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return string(password)
	}
	defer term.Restore(fd, oldState)

	var password []rune
	reader := bufio.NewReader(os.Stdin)
	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}

		switch char {
		case '\n', '\r': // Enter key
			fmt.Fprint(out, "\r\n")
			return string(password)
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(out, "\b \b")
			}
		case 3: // Ctrl+C
			term.Restore(fd, oldState)
			fmt.Fprintln(out)
			os.Exit(1)
		default:
			if char >= 32 && char != 127 {
				password = append(password, char)
				fmt.Fprint(out, "*")
			}
		}
	}

	fmt.Fprint(out, "\r\n")
	return string(password)
}
