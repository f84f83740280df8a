package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

func (c *cli) dailyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Whole-day attendance calendar",
	}

	monthCmd := &cobra.Command{
		Use:   "month [year month]",
		Short: "Show a month (default: the current one)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <year> <month>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStack(func(st *stack) error {
				var grid attendance.MonthGrid
				var err error
				if len(args) == 2 {
					year, month, perr := parseYearMonth(args[0], args[1])
					if perr != nil {
						return perr
					}
					grid, err = st.daily.RenderMonth(year, month)
				} else {
					grid, err = st.daily.CurrentMonth()
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderMonth(grid, c.today()))
				return nil
			})
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <date>",
		Short: "Cycle a day: unmarked, present, absent, unmarked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStack(func(st *stack) error {
				status, err := st.daily.ToggleDay(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], statusLabel(status))
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <date> <present|absent>",
		Short: "Set a day's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := attendance.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return c.withStack(func(st *stack) error {
				if err := st.daily.SetDayStatus(args[0], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], statusLabel(status))
				return nil
			})
		},
	}

	todayCmd := &cobra.Command{
		Use:   "today <present|absent>",
		Short: "Mark today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := attendance.ParseStatus(args[0])
			if err != nil {
				return err
			}
			return c.withStack(func(st *stack) error {
				date, err := st.daily.MarkToday(status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", date, statusLabel(status))
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every daily entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.confirm(cmd.ErrOrStderr())("Clear the whole daily calendar?") {
				return attendance.ErrNotConfirmed
			}
			return c.withStack(func(st *stack) error {
				if err := st.daily.ClearAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daily calendar cleared")
				return nil
			})
		},
	}

	cmd.AddCommand(monthCmd, toggleCmd, setCmd, todayCmd, clearCmd)
	return cmd
}

// parseYearMonth accepts any integer month; out-of-range values roll over.
func parseYearMonth(y, m string) (int, time.Month, error) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", y)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q", m)
	}
	return year, time.Month(month), nil
}

// today is the current date in the configured timezone.
func (c *cli) today() string {
	return c.clock()().Format(attendance.DateLayout)
}
