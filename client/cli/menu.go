package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/juju/errors"

	"github.com/Iyzyman/facility-booking/client/utils"
	"github.com/Iyzyman/facility-booking/common"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	updateColor  = color.New(color.FgYellow)
)

// CLI drives a ClientState from an interactive menu.
type CLI struct {
	client *ClientState
	in     *utils.Prompter
	out    io.Writer
}

func NewCLI(client *ClientState, in *utils.Prompter, out io.Writer) *CLI {
	return &CLI{client: client, in: in, out: out}
}

// Run presents a menu and handles user input until exit, end of input or
// ctx cancellation.
func (c *CLI) Run(ctx context.Context) {
	for ctx.Err() == nil {
		headerColor.Fprintln(c.out, "\nAvailable commands:")
		fmt.Fprintln(c.out, "1. query   - Query facility availability")
		fmt.Fprintln(c.out, "2. book    - Book a facility")
		fmt.Fprintln(c.out, "3. change  - Shift an existing booking")
		fmt.Fprintln(c.out, "4. monitor - Monitor facility availability")
		fmt.Fprintln(c.out, "5. extend  - Extend a booking (idempotent)")
		fmt.Fprintln(c.out, "6. cancel  - Cancel a booking (non-idempotent)")
		fmt.Fprintln(c.out, "7. exit    - Exit the client")

		input, err := c.in.Ask("\nEnter command: ")
		if err != nil {
			return
		}

		switch strings.ToLower(input) {
		case "1", "query":
			err = c.handleQueryAvailability(ctx)
		case "2", "book":
			err = c.handleBookFacility(ctx)
		case "3", "change":
			err = c.handleChangeBooking(ctx)
		case "4", "monitor":
			err = c.handleMonitorAvailability(ctx)
		case "5", "extend":
			err = c.handleExtendBooking(ctx)
		case "6", "cancel":
			err = c.handleCancelBooking(ctx)
		case "7", "exit", "quit":
			fmt.Fprintln(c.out, "Exiting client.")
			return
		default:
			fmt.Fprintln(c.out, "Unknown command. Please try again.")
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			c.printFailure(err)
		}
	}
}

func (c *CLI) printFailure(err error) {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		failureColor.Fprintf(c.out, "Server error [%s]: %s\n", serverErr.Code, serverErr.Message)
		return
	}
	failureColor.Fprintf(c.out, "Error: %v\n", err)
}

func (c *CLI) handleQueryAvailability(ctx context.Context) error {
	facility, err := c.in.Ask("Enter facility name: ")
	if err != nil {
		return err
	}
	days, err := c.in.ReadDaysList()
	if err != nil {
		return err
	}
	availability, err := c.client.QueryAvailability(ctx, facility, days)
	if err != nil {
		return err
	}
	headerColor.Fprintf(c.out, "\nAvailability for '%s':\n", facility)
	printAvailability(c.out, availability)
	return nil
}

func (c *CLI) handleBookFacility(ctx context.Context) error {
	facility, err := c.in.Ask("Enter facility name: ")
	if err != nil {
		return err
	}
	start, end, err := c.in.ReadBookingTimes()
	if err != nil {
		return err
	}
	id, err := c.client.BookFacility(ctx, facility, start, end)
	if err != nil {
		return err
	}
	successColor.Fprintf(c.out, "\nBooking successful! Confirmation ID: %s\n", id)
	return nil
}

func (c *CLI) handleChangeBooking(ctx context.Context) error {
	id, err := c.in.Ask("Enter confirmation ID: ")
	if err != nil {
		return err
	}
	offset, err := c.in.ReadInt("Enter offset in minutes (positive to postpone, negative to advance): ",
		-common.MinutesPerWeek, common.MinutesPerWeek)
	if err != nil {
		return err
	}
	if err := c.client.ChangeBooking(ctx, id, int32(offset)); err != nil {
		return err
	}
	successColor.Fprintf(c.out, "\nBooking %s shifted by %d minutes.\n", id, offset)
	return nil
}

func (c *CLI) handleMonitorAvailability(ctx context.Context) error {
	facility, err := c.in.Ask("Enter facility name: ")
	if err != nil {
		return err
	}
	seconds, err := c.in.ReadInt("Enter duration in seconds: ", 1, math.MaxInt32)
	if err != nil {
		return err
	}
	message, err := c.client.RegisterMonitor(ctx, facility, uint32(seconds))
	if err != nil {
		return err
	}
	successColor.Fprintln(c.out, "\n"+message)
	fmt.Fprintln(c.out, "Waiting for updates (press Enter to stop)...")

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.in.Lines():
			cancel()
		case <-monitorCtx.Done():
		}
	}()

	deadline := c.client.clock.Now().Add(time.Duration(seconds) * time.Second)
	err = c.client.ReceiveUpdates(monitorCtx, deadline, func(update common.ReplyMessage) {
		updateColor.Fprintf(c.out, "\nUpdate for '%s':\n", update.FacilityName)
		printAvailability(c.out, update.Availability)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Monitoring ended.")
	return nil
}

func (c *CLI) handleExtendBooking(ctx context.Context) error {
	id, err := c.in.Ask("Enter confirmation ID: ")
	if err != nil {
		return err
	}
	minutes, err := c.in.ReadInt("Enter extension in minutes beyond the original end: ", 0, common.MinutesPerWeek)
	if err != nil {
		return err
	}
	message, err := c.client.ExtendBooking(ctx, id, uint32(minutes))
	if err != nil {
		return err
	}
	successColor.Fprintln(c.out, "\n"+message)
	return nil
}

func (c *CLI) handleCancelBooking(ctx context.Context) error {
	id, err := c.in.Ask("Enter confirmation ID: ")
	if err != nil {
		return err
	}
	message, err := c.client.CancelBooking(ctx, id)
	if err != nil {
		return err
	}
	successColor.Fprintln(c.out, "\n"+message)
	return nil
}

// printAvailability writes one line per day, e.g.
// "  Mon: 00:00-09:00, 10:00-24:00".
func printAvailability(out io.Writer, days []common.DayAvailability) {
	for _, day := range days {
		if len(day.Slots) == 0 {
			fmt.Fprintf(out, "  %s: fully booked\n", common.DayName(day.Day))
			continue
		}
		slots := make([]string, 0, len(day.Slots))
		for _, slot := range day.Slots {
			slots = append(slots, fmt.Sprintf("%02d:%02d-%02d:%02d",
				slot.Start.Hour, slot.Start.Minute, slot.End.Hour, slot.End.Minute))
		}
		fmt.Fprintf(out, "  %s: %s\n", common.DayName(day.Day), strings.Join(slots, ", "))
	}
}
