package decision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"eventsync/src-server/model"
	"eventsync/src-server/ui"
)

type choice struct {
	label    string
	decision model.Decision
}

var choices = []choice{
	{"Keep local (push to Discord)", model.DecisionKeepLocal},
	{"Keep Discord (overwrite local)", model.DecisionKeepDiscord},
	{"Skip", model.DecisionSkip},
}

// Prompt asks for a decision per conflict on a line-oriented terminal.
// "q" skips the remaining conflicts; so does end of input.
type Prompt struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (p *Prompt) Decide(ctx context.Context, conflicts []model.Conflict) (map[string]model.Decision, error) {
	decisions := make(map[string]model.Decision, len(conflicts))

	fmt.Fprintf(p.out, "\n%s\n", ui.Header("=== Conflict Resolution ==="))
	fmt.Fprintf(p.out, "Found %d conflict(s).\n\n", len(conflicts))

	for i := range conflicts {
		if err := ctx.Err(); err != nil {
			return decisions, err
		}
		c := &conflicts[i]
		p.show(i, len(conflicts), c)

		d, quit, err := p.ask(c)
		if err != nil {
			return decisions, fmt.Errorf("(*Prompt).Decide: %s: %w", c.Key(), err)
		}
		if quit {
			fmt.Fprintln(p.out, ui.StatusSkipped("skipping the remaining conflicts"))
			break
		}
		decisions[c.Key()] = d
		fmt.Fprintf(p.out, "%s\n\n", ui.StatusSuccess(fmt.Sprintf("%s: %s", c.Title(), d)))
	}
	return decisions, nil
}

func (p *Prompt) show(i, n int, c *model.Conflict) {
	fmt.Fprintf(p.out, "--- Conflict %d of %d: %s ---\n", i+1, n, ui.Bold(c.Title()))
	fmt.Fprintf(p.out, "Type: %s\n", c.Type)
	if c.LocalEvent != nil {
		fmt.Fprintf(p.out, "Local:   %s %s %s (%s)\n", c.LocalEvent.Date, c.LocalEvent.Time, c.LocalEvent.Timezone, c.LocalEvent.ID)
	}
	if c.DiscordEvent != nil {
		fmt.Fprintf(p.out, "Discord: %s (%s)\n", c.DiscordEvent.ScheduledStart.UTC().Format("2006-01-02 15:04 MST"), c.DiscordEvent.ID)
	}
	for _, d := range c.Differences {
		fmt.Fprintf(p.out, "  %s %s\n", ui.Warning(ui.SymbolWarning), d)
	}
}

// ask loops until it reads an allowed choice. End of input counts as quit.
func (p *Prompt) ask(c *model.Conflict) (model.Decision, bool, error) {
	fmt.Fprintln(p.out, "\nHow would you like to resolve this conflict?")
	for i, ch := range choices {
		if ch.decision.Allows(c.Type) {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, ch.label)
		} else {
			fmt.Fprintf(p.out, "  %s\n", ui.Dim(fmt.Sprintf("%d. %s (not available)", i+1, ch.label)))
		}
	}
	fmt.Fprintf(p.out, "  q. Skip this and all remaining\n")
	fmt.Fprintf(p.out, "\nEnter choice [1-%d, q]: ", len(choices))

	for {
		response, err := p.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && response != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return "", true, nil
			}
			return "", false, fmt.Errorf("failed to read input: %w", err)
		}

		response = strings.ToLower(strings.TrimSpace(response))
		if response == "q" {
			return "", true, nil
		}
		n, convErr := strconv.Atoi(response)
		if convErr == nil && n >= 1 && n <= len(choices) && choices[n-1].decision.Allows(c.Type) {
			return choices[n-1].decision, false, nil
		}
		if err != nil {
			// last line had no newline and was not a valid choice
			fmt.Fprintln(p.out)
			return "", true, nil
		}
		fmt.Fprintf(p.out, "%s Enter 1-%d or q: ", ui.Error("Invalid choice."), len(choices))
	}
}
