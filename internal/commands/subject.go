package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

// withStack opens the stack for the duration of fn.
func (c *cli) withStack(fn func(*stack) error) error {
	st, err := c.openStack()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *cli) subjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subject",
		Aliases: []string{"subjects", "class"},
		Short:   "Manage subjects and today's class attendance",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a subject",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStack(func(st *stack) error {
					name, err := st.registry.AddSubject(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List subjects with their attendance",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStack(func(st *stack) error {
					list, err := st.registry.List()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderSubjects(list, c.cfg.Threshold))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Show a subject's records",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStack(func(st *stack) error {
					subject, err := st.registry.Subject(args[0])
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s  %s\n", titleStyle.Render(args[0]), renderStats(subject.Stats(), c.cfg.Threshold))
					for _, r := range subject.Records {
						fmt.Fprintf(out, "  %s  %s\n", r.Date, statusLabel(r.Status))
					}
					return nil
				})
			},
		},
		c.markCmd("present", attendance.StatusPresent),
		c.markCmd("absent", attendance.StatusAbsent),
		&cobra.Command{
			Use:   "unmark <name>",
			Short: "Remove today's record for a subject",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStack(func(st *stack) error {
					if err := st.registry.DeleteTodayRecord(args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared today for %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "delete <name>",
			Aliases: []string{"rm"},
			Short:   "Delete a subject and all its records",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStack(func(st *stack) error {
					if err := st.registry.DeleteSubject(args[0], c.confirm(cmd.ErrOrStderr())); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every subject",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if !c.confirm(cmd.ErrOrStderr())("Delete all subjects and their records?") {
					return attendance.ErrNotConfirmed
				}
				return c.withStack(func(st *stack) error {
					if err := st.registry.ClearAll(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "All subjects deleted")
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) markCmd(use string, status attendance.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: fmt.Sprintf("Mark a subject %s today", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStack(func(st *stack) error {
				if err := st.registry.SetTodayStatus(args[0], status); err != nil {
					return err
				}
				stats, err := st.registry.ComputeStats(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", args[0], statusLabel(status), renderStats(stats, c.cfg.Threshold))
				return nil
			})
		},
	}
}

func statusLabel(s attendance.Status) string {
	switch s {
	case attendance.StatusPresent:
		return presentStyle.Render("present")
	case attendance.StatusAbsent:
		return absentStyle.Render("absent")
	}
	return mutedStyle.Render("unmarked")
}
