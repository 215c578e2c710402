// Package chat holds the read-eval-print loop shared by the chat and the
// agent commands.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/utils"
	"github.com/dimiro1/banner"
)

const (
	Prompt = "> "

	ChatGreeting  = "Простой LLM-чат готов. Пустая строка - выход."
	AgentGreeting = "Мини-агент готов (поиск + запись). Пустая строка - выход."

	bannerTemplate = `{{ .Title "miniagent" "" 0 }}`
)

// REPL reads one line at a time from In, and passes it to the querier until
// an empty line, end of input or cancelled context.
type REPL struct {
	Querier  models.Querier
	Greeting string
	Raw      bool
	In       io.Reader
	Out      io.Writer
}

type readResult struct {
	line string
	err  error
}

func New(q models.Querier, greeting string, raw bool) *REPL {
	return &REPL{
		Querier:  q,
		Greeting: greeting,
		Raw:      raw,
		In:       os.Stdin,
		Out:      os.Stdout,
	}
}

func (r *REPL) printGreeting() {
	if !r.Raw {
		colorEnabled := !misc.Truthy(os.Getenv("NO_COLOR"))
		banner.Init(r.Out, true, colorEnabled, bytes.NewBufferString(bannerTemplate))
		fmt.Fprintln(r.Out)
	}
	fmt.Fprintln(r.Out, r.Greeting)
}

// readLines from in until EOF, sending each line on the returned channel.
// The channel is closed on EOF.
func readLines(in io.Reader, done <-chan struct{}) <-chan readResult {
	lines := make(chan readResult)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			if errors.Is(err, io.EOF) {
				// last line without newline is still a line
				if line != "" {
					select {
					case lines <- readResult{line: line}:
					case <-done:
					}
				}
				return
			}
			select {
			case lines <- readResult{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

// Run the loop. Failed queries are reported and the loop continues,
// except for cancellations which end it with ErrUserInitiatedExit.
func (r *REPL) Run(ctx context.Context) error {
	r.printGreeting()
	done := make(chan struct{})
	defer close(done)
	lines := readLines(r.In, done)
	for {
		fmt.Fprint(r.Out, Prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.Out)
			return utils.ErrUserInitiatedExit
		case res, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.Out)
				return nil
			}
			if res.err != nil {
				return fmt.Errorf("failed to read user input: %w", res.err)
			}
			userInput := strings.TrimSpace(res.line)
			if userInput == "" {
				return nil
			}
			_, err := r.Querier.TextQuery(ctx, userInput)
			if errors.Is(err, context.Canceled) {
				return utils.ErrUserInitiatedExit
			}
			if err != nil {
				ancli.PrintErr(fmt.Sprintf("%v\n", err))
			}
		}
	}
}
