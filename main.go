package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"
	"github.com/baalimago/miniagent/internal"
	"github.com/baalimago/miniagent/internal/utils"
)

const usage = `miniagent - a small llm chat and web searching agent

Prerequisites:
  - Set the GIGA_AUTH_DATA environment variable to your GigaChat authorization key (default vendor)
  - (Optional) Set GIGA_SCOPE to override the GigaChat api scope (default GIGACHAT_API_PERS)
  - (Optional) Set OPENAI_API_KEY and OPENAI_BASE_URL to use '-vn openai'
  - (Optional) Put the variables above in a .env file in the working directory
  - (Optional) Set the NO_COLOR environment variable to disable ansi color output
  - (Optional) Install glow - https://github.com/charmbracelet/glow for formatted markdown output

Usage: miniagent [flags] <command>

Flags:
  -vn, -vendor string          Set the vendor to use: gigachat, openai or test. (default is found in textConfig.json)
  -cm, -chat-model string      Set the chat model to use. (default is found in the vendor config, such as gigachat.json)
  -r, -raw bool                Set to true to print raw output (no banner, no glow). (default false)
  -kh, -keep-history bool      Set to true to keep the conversation between chat turns. (default false)
  -a, -agent bool              Set to true to run 'query' through the agent. (default false)
  -d, -data-dir string         Set the directory where the agent writes agent.log. (default is found in textConfig.json)
  -mtc, -max-tool-calls int    Set the maximum amount of tool calls per agent query. (default is found in textConfig.json)
  -e, -env-file string         Set the dotenv file to read secrets from. (default .env)

Commands:
  h|help                        Display this help message
  v|version                     Display the version
  c|chat                        Start the chat loop. Empty line to exit.
  a|agent                       Start the agent loop, which may search the web and log its findings. Empty line to exit.
  q|query <text>                Query the chat model once with the given text

Config files are found in the 'miniagent' config dir, override with MINIAGENT_CONFIG_HOME.

Examples:
  - miniagent chat
  - miniagent agent
  - miniagent -a q "What's new in the Go ecosystem this week?"
  - miniagent -vn openai -cm gpt-4.1 chat
  - miniagent -d ~/notes agent
`

func main() {
	ancli.SetupSlog()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd, err := internal.Setup(usage, args)
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to setup: %v\n", err))
		return 1
	}
	go func() { shutdown.Monitor(cancel) }()
	err = cmd.Run(ctx)
	if err != nil {
		if errors.Is(err, utils.ErrUserInitiatedExit) {
			ancli.Okf("Seems like you wanted out. Byebye!\n")
			return 0
		}
		ancli.PrintErr(fmt.Sprintf("failed to run: %v\n", err))
		return 1
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK("things seems to have worked out. Bye bye!\n")
	}
	return 0
}
