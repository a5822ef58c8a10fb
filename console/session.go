/*
session.go - Interactive command loop for the scheduler

PURPOSE:
  Reads one command per line, applies it to the shared schedule and prints a
  single reply line. Every command that changes or reads the week writes a
  report file through the archive.

COMMANDS:
  schedule id <id>                      export one employee's week
  schedule report                       export the full schedule
  calculate wages                       export the wage report
  mark absence <id> <day> <status>      apply out | in | full out, re-export
  exit                                  leave the loop

  Input is trimmed and lower-cased before matching. After "calculate wages"
  every later export carries the Wages column.

SEE ALSO:
  - schedule/schedule.go: Shared schedule context
  - report/archive.go: File names and output directory
*/
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/warp/shift-engine/metrics"
	"github.com/warp/shift-engine/report"
	"github.com/warp/shift-engine/schedule"
)

// Prompt is printed before every command.
const Prompt = "Enter a command (e.g., 'schedule id 1', 'schedule report', 'calculate wages', " +
	"'mark absence <id> <day> <status>', or 'exit' to quit): "

const (
	msgInvalidCommand = "Invalid command. Please try again."
	msgInvalidDay     = "Invalid day. Use a valid weekday name."
	msgInvalidStatus  = "Invalid status. Use 'out', 'in', or 'full out'."
	msgExit           = "Exiting the scheduler."
)

// Session is one console conversation. It is not safe for concurrent use.
type Session struct {
	Schedule *schedule.Schedule
	Archive  *report.Archive
	Metrics  *metrics.Recorder
	Logger   *slog.Logger

	// Prompt defaults to the package Prompt. Set to "" to disable.
	Prompt string

	withWages bool
}

func NewSession(s *schedule.Schedule, archive *report.Archive, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{Schedule: s, Archive: archive, Logger: logger, Prompt: Prompt}
}

// Run reads commands from in until "exit", end of input or ctx is done.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Prompt != "" {
			fmt.Fprint(out, s.Prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		reply, done := s.Execute(ctx, scanner.Text())
		fmt.Fprintln(out, reply)
		if done {
			return nil
		}
	}
}

// Execute handles a single input line and returns the reply. done is true
// after "exit".
func (s *Session) Execute(ctx context.Context, line string) (reply string, done bool) {
	input := strings.ToLower(strings.TrimSpace(line))

	switch {
	case strings.HasPrefix(input, "schedule id "):
		return s.exportEmployee(ctx, strings.TrimPrefix(input, "schedule id ")), false
	case input == "schedule report":
		return s.exportSchedule(ctx), false
	case input == "calculate wages":
		return s.calculateWages(ctx), false
	case strings.HasPrefix(input, "mark absence "):
		return s.markAbsence(ctx, strings.Fields(input)[2:]), false
	case input == "exit":
		s.Logger.Info("scheduler exited by user")
		return msgExit, true
	}
	return msgInvalidCommand, false
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

func (s *Session) exportEmployee(ctx context.Context, arg string) string {
	id, err := parseID(arg)
	if err != nil {
		return invalidInput(err)
	}
	t, err := s.table(ctx)
	if err != nil {
		return s.failure(err)
	}
	path, err := s.Archive.ExportEmployee(t, id)
	if err != nil {
		return s.failure(err)
	}
	return fmt.Sprintf("Schedule for employee %d exported to %s", id, path)
}

func (s *Session) exportSchedule(ctx context.Context) string {
	t, err := s.table(ctx)
	if err != nil {
		return s.failure(err)
	}
	path, err := s.Archive.ExportSchedule(t)
	if err != nil {
		return s.failure(err)
	}
	return fmt.Sprintf("Full schedule exported to %s", path)
}

func (s *Session) calculateWages(ctx context.Context) string {
	s.withWages = true
	t, err := s.table(ctx)
	if err != nil {
		return s.failure(err)
	}
	path, err := s.Archive.ExportWages(t)
	if err != nil {
		return s.failure(err)
	}
	return fmt.Sprintf("Wage report exported to %s", path)
}

// markAbsence expects <id> <day> <status...>. The status may be two words.
func (s *Session) markAbsence(ctx context.Context, args []string) string {
	if len(args) < 3 {
		return invalidInput(fmt.Errorf("expected <id> <day> <status>, got %d argument(s)", len(args)))
	}
	id, err := parseID(args[0])
	if err != nil {
		return invalidInput(err)
	}

	day, cmd, err := s.Schedule.ParseAbsence(id, args[1], strings.Join(args[2:], " "))
	if err != nil {
		s.Metrics.ObserveRejection(err)
		return s.failure(err)
	}
	outcome, err := s.Schedule.MarkAbsence(ctx, id, day, cmd)
	if err != nil {
		s.Metrics.ObserveRejection(err)
		return s.failure(err)
	}
	s.Metrics.ObserveOutcome(cmd, outcome)

	t, err := s.table(ctx)
	if err != nil {
		return s.failure(err)
	}
	path, err := s.Archive.ExportSchedule(t)
	if err != nil {
		return s.failure(err)
	}
	return fmt.Sprintf("Absence status for employee %d updated. Schedule exported to %s", id, path)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Session) table(ctx context.Context) (report.Table, error) {
	entries, err := s.Schedule.Entries(ctx)
	if err != nil {
		return report.Table{}, err
	}
	if !s.withWages {
		return report.Build(entries, nil), nil
	}
	calc := s.Schedule.Wages()
	return report.Build(entries, &calc), nil
}

func (s *Session) failure(err error) string {
	var nf *schedule.NotFoundError
	switch {
	case errors.As(err, &nf):
		return fmt.Sprintf("Employee with ID %d not found.", nf.EmployeeID)
	case errors.Is(err, schedule.ErrInvalidDay):
		return msgInvalidDay
	case errors.Is(err, schedule.ErrInvalidCommand):
		return msgInvalidStatus
	}
	s.Logger.Error("command failed", "error", err)
	return fmt.Sprintf("Error: %v", err)
}

func parseID(s string) (schedule.EmployeeID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return schedule.EmployeeID(n), nil
}

func invalidInput(err error) string {
	return fmt.Sprintf("Invalid input: %v", err)
}
