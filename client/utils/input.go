package utils

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/Iyzyman/facility-booking/common"
)

// Prompter asks questions on out and reads one answer line each from in.
// Lines are read by a single goroutine so a caller may also wait on Lines
// directly, e.g. to stop a long-running operation on Enter.
type Prompter struct {
	out   io.Writer
	lines chan string
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		out:   out,
		lines: make(chan string),
	}
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			p.lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return p
}

// Lines yields every input line not consumed by Ask. It is closed at end of
// input.
func (p *Prompter) Lines() <-chan string {
	return p.lines
}

// Ask prints prompt and returns the next input line, trimmed.
func (p *Prompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, ok := <-p.lines
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

// ReadInt asks for an integer in [min, max].
func (p *Prompter) ReadInt(prompt string, min, max int) (int, error) {
	answer, err := p.Ask(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < min || n > max {
		return 0, errors.NotValidf("%q (want %d-%d)", answer, min, max)
	}
	return n, nil
}

// ReadDaysList asks for comma-separated day indices.
func (p *Prompter) ReadDaysList() ([]uint8, error) {
	answer, err := p.Ask("Enter days (0=Mon, 1=Tue, ..., 6=Sun, comma-separated): ")
	if err != nil {
		return nil, err
	}
	return ParseDays(answer)
}

// ParseDays parses a comma-separated list of day indices 0-6.
func ParseDays(s string) ([]uint8, error) {
	var days []uint8
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		day, err := strconv.Atoi(field)
		if err != nil || day < 0 || day >= common.DaysPerWeek {
			return nil, errors.NotValidf("day %q", field)
		}
		days = append(days, uint8(day))
	}
	if len(days) == 0 {
		return nil, errors.NotValidf("empty day list")
	}
	return days, nil
}

// ReadTime asks for the day, hour and minute of one time slot.
func (p *Prompter) ReadTime(label string) (common.TimeSlot, error) {
	day, err := p.ReadInt(fmt.Sprintf("Enter %s day (0=Mon..6=Sun): ", label), 0, common.DaysPerWeek-1)
	if err != nil {
		return common.TimeSlot{}, errors.Annotatef(err, "%s day", label)
	}
	hour, err := p.ReadInt(fmt.Sprintf("Enter %s hour (0-23): ", label), 0, 23)
	if err != nil {
		return common.TimeSlot{}, errors.Annotatef(err, "%s hour", label)
	}
	minute, err := p.ReadInt(fmt.Sprintf("Enter %s minute (0-59): ", label), 0, 59)
	if err != nil {
		return common.TimeSlot{}, errors.Annotatef(err, "%s minute", label)
	}
	return common.TimeSlot{Day: uint8(day), Hour: uint8(hour), Minute: uint8(minute)}, nil
}

// ReadBookingTimes asks for a start and an end time.
func (p *Prompter) ReadBookingTimes() (start, end common.TimeSlot, err error) {
	if start, err = p.ReadTime("start"); err != nil {
		return start, end, err
	}
	if end, err = p.ReadTime("end"); err != nil {
		return start, end, err
	}
	return start, end, nil
}
