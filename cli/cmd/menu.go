package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	currency "github.com/malusev998/currency-converter"
)

// MenuCommand identifies a menu action independently of the number it is
// shown under.
type MenuCommand string

const (
	MenuExit      MenuCommand = "exit"
	MenuConvert   MenuCommand = "convert"
	MenuCount     MenuCommand = "count"
	MenuHistory   MenuCommand = "history"
	MenuStats     MenuCommand = "stats"
	MenuReport    MenuCommand = "report"
	MenuLargest   MenuCommand = "largest"
	MenuTotalSize MenuCommand = "size"
	MenuNewest    MenuCommand = "newest"
	MenuDedupe    MenuCommand = "dedupe"
	MenuPurge     MenuCommand = "purge"
)

var ErrInvalidChoice = errors.New("invalid menu choice")

type (
	menuEntry struct {
		Number      int
		Command     MenuCommand
		Description string
	}

	menuHandler func(c *Config, p *prompter, out io.Writer) error

	prompter struct {
		ctx   context.Context
		lines <-chan string
		out   io.Writer
	}
)

var menuEntries = []menuEntry{
	{1, MenuConvert, "Convert currency"},
	{2, MenuCount, "Get conversions count"},
	{3, MenuHistory, "Display conversion history"},
	{4, MenuStats, "Get conversion statistics"},
	{5, MenuReport, "Show report"},
	{6, MenuLargest, "Find the largest file in conversions"},
	{7, MenuTotalSize, "Get the total size of all conversions"},
	{8, MenuNewest, "Find the newest file"},
	{9, MenuDedupe, "Remove duplicate conversions"},
	{10, MenuPurge, "Delete all conversions (fresh start)"},
	{0, MenuExit, "Exit"},
}

func withoutInput(run action) menuHandler {
	return func(c *Config, _ *prompter, out io.Writer) error {
		return run(c, out)
	}
}

var menuHandlers = map[MenuCommand]menuHandler{
	MenuConvert:   convertFromPrompt,
	MenuCount:     withoutInput(count),
	MenuHistory:   withoutInput(history),
	MenuStats:     withoutInput(stats),
	MenuReport:    reportFromPrompt,
	MenuLargest:   withoutInput(largest),
	MenuTotalSize: withoutInput(size),
	MenuNewest:    withoutInput(newest),
	MenuDedupe:    withoutInput(dedupe),
	MenuPurge:     withoutInput(purge),
}

// ParseChoice maps the number typed by the user to a menu command.
func ParseChoice(input string) (MenuCommand, error) {
	number, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidChoice, input)
	}

	for _, entry := range menuEntries {
		if entry.Number == number {
			return entry.Command, nil
		}
	}

	return "", fmt.Errorf("%w: %d is not on the menu", ErrInvalidChoice, number)
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}

// ask returns io.EOF once the input is exhausted and the context error once
// the menu is interrupted.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	if err := p.ctx.Err(); err != nil {
		return "", err
	}

	select {
	case <-p.ctx.Done():
		return "", p.ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}

		return strings.TrimSpace(line), nil
	}
}

func printMenu(out io.Writer) {
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 30))
	fmt.Fprintln(out, "       CURRENCY CONVERTER")
	fmt.Fprintln(out, strings.Repeat("=", 30))

	for _, entry := range menuEntries {
		fmt.Fprintf(out, "%d. %s\n", entry.Number, entry.Description)
	}

	fmt.Fprintln(out, strings.Repeat("=", 30))
}

func runMenu(c *Config, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(c.Ctx)
	defer cancel()

	p := &prompter{ctx: ctx, lines: readLines(ctx, in), out: out}

	fmt.Fprintln(out, "Welcome!")

	for {
		printMenu(out)

		choice, err := p.ask("\nChoose an option: ")
		if err != nil {
			fmt.Fprintln(out, "\nGood Bye")
			return nil
		}

		command, err := ParseChoice(choice)
		if err != nil {
			fmt.Fprintln(out, "Invalid! Choose a number from the menu")
			continue
		}

		if command == MenuExit {
			fmt.Fprintln(out, "\nGood Bye")
			return nil
		}

		if err := menuHandlers[command](c, p, out); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				fmt.Fprintln(out, "\nGood Bye")
				return nil
			}

			fmt.Fprintln(out, currency.Describe(err))
		}
	}
}

func convertFromPrompt(c *Config, p *prompter, out io.Writer) error {
	from, err := p.ask("From currency (example: USD): ")
	if err != nil {
		return err
	}

	to, err := p.ask("To currency (example: EUR): ")
	if err != nil {
		return err
	}

	input, err := p.ask("Amount to convert: ")
	if err != nil {
		return err
	}

	amount, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not an amount", currency.ErrInvalidConversion, input)
	}

	return convert(c, out, from, to, amount)
}

func reportFromPrompt(c *Config, p *prompter, out io.Writer) error {
	r, ok, err := showReport(c, out)
	if err != nil || !ok {
		return err
	}

	answer, err := p.ask("Save the report to storage? [y/N]: ")
	if err != nil {
		return err
	}

	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		return nil
	}

	return saveReport(c, out, r)
}
