package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/tools"
	"github.com/baalimago/miniagent/internal/utils"
)

// ToolBudgetSpent replaces the tool output once max-tool-calls is reached.
const ToolBudgetSpent = "ERROR: No more tool calls allowed"

// Agent runs the tool-call loop: the model is queried with the registered
// tools until it replies without requesting any.
type Agent struct {
	completer models.Completer
	registry  *tools.Registry
	conf      Configurations
	out       io.Writer
	username  string
	now       func() time.Time
	debug     bool
}

func NewAgent(completer models.Completer, registry *tools.Registry, conf Configurations, out io.Writer) *Agent {
	return &Agent{
		completer: completer,
		registry:  registry,
		conf:      conf,
		out:       out,
		username:  currentUsername(),
		now:       time.Now,
		debug:     misc.Truthy(os.Getenv("DEBUG")),
	}
}

func limitToolOutput(out string, limit int) string {
	if limit < 0 {
		return out
	}
	amRunes := utf8.RuneCountInString(out)
	if amRunes <= limit {
		return out
	}
	runes := []rune(out)
	return fmt.Sprintf(
		"%v... and %v more characters. The tool's output has been restricted as it's too long. Please concentrate your tool calls to reduce the amount of tokens used!",
		string(runes[:limit]), amRunes-limit)
}

// TextQuery runs the agent on query and prints the final reply.
func (a *Agent) TextQuery(ctx context.Context, query string) (models.Chat, error) {
	chat, err := a.Run(ctx, query)
	if err != nil {
		return chat, err
	}
	reply, err := chat.FinalReply()
	if err != nil {
		return chat, fmt.Errorf("failed to find final reply: %w", err)
	}
	if err := utils.AttemptPrettyPrint(a.out, reply, a.username, a.conf.Raw); err != nil {
		return chat, fmt.Errorf("failed to print reply: %w", err)
	}
	return chat, nil
}

// Run the tool-call loop without printing the final reply. The returned chat
// holds every message of the run, also on error.
func (a *Agent) Run(ctx context.Context, query string) (models.Chat, error) {
	chat := newChat(a.conf.AgentPrompt, a.now())
	chat.Messages = append(chat.Messages, models.Message{Role: "user", Content: query})
	specs := a.registry.Specifications()
	maxToolCalls := max(a.conf.MaxToolCalls, 0)
	amToolCalls := 0
	// one round past the budget, so that the model may answer after being
	// refused more tool calls
	for round := 0; ; round++ {
		if round > maxToolCalls+1 {
			return chat, fmt.Errorf("no final reply after %v rounds", round)
		}
		msg, err := a.completer.Complete(ctx, chat, specs)
		if err != nil {
			return chat, fmt.Errorf("failed to complete round %v: %w", round, err)
		}
		if msg.Role == "" {
			msg.Role = "assistant"
		}
		chat.Messages = append(chat.Messages, msg)
		if len(msg.ToolCalls) == 0 {
			return chat, nil
		}
		for _, call := range msg.ToolCalls {
			if err := ctx.Err(); err != nil {
				return chat, err
			}
			var out string
			if amToolCalls >= maxToolCalls {
				out = ToolBudgetSpent
			} else {
				a.printCall(call)
				out = a.registry.Invoke(ctx, call)
				amToolCalls++
			}
			toolMsg := models.Message{
				Role:       "tool",
				Name:       call.Name,
				Content:    limitToolOutput(out, a.conf.ToolOutputRuneLimit),
				ToolCallID: call.ID,
			}
			chat.Messages = append(chat.Messages, toolMsg)
			a.printToolOutput(toolMsg)
		}
	}
}

func (a *Agent) printCall(call models.Call) {
	if a.debug {
		ancli.PrintOK(fmt.Sprintf("tool call: %v\n", debug.IndentedJsonFmt(call)))
		return
	}
	if a.conf.Raw {
		return
	}
	err := utils.AttemptPrettyPrint(a.out, models.Message{Role: "assistant", Content: call.PrettyPrint()}, a.username, false)
	if err != nil {
		ancli.PrintWarn(fmt.Sprintf("failed to print tool call: %v\n", err))
	}
}

func (a *Agent) printToolOutput(msg models.Message) {
	if a.conf.Raw || a.debug {
		return
	}
	msg.Content = utils.ShortenedOutput(msg.Content, MaxShortenedNewlines)
	if err := utils.AttemptPrettyPrint(a.out, msg, a.username, false); err != nil {
		ancli.PrintWarn(fmt.Sprintf("failed to print tool output: %v\n", err))
	}
}
