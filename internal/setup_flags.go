package internal

import (
	"flag"
	"fmt"

	"github.com/baalimago/miniagent/internal/utils"
)

type Configurations struct {
	Vendor       string
	ChatModel    string
	DataDir      string
	EnvFile      string
	MaxToolCalls int
	PrintRaw     bool
	KeepHistory  bool
	Agent        bool
}

var defaultFlags = Configurations{
	EnvFile: utils.DefaultEnvFile,
}

func flagError(err error, shortFlag, longFlag string) error {
	return fmt.Errorf("flags: '%v' and '%v' are mutually exclusive, err: %w", shortFlag, longFlag, err)
}

// parseFlags parses CLI flags into Configurations, returning the remaining
// args. Short and long versions of the same flag are mutually exclusive.
func parseFlags(defaults Configurations, args []string) (Configurations, []string, error) {
	fs := flag.NewFlagSet("miniagent", flag.ContinueOnError)
	fs.String("A-helpful-nonexisting-flag", "there is no default", "This isn't a flag. It's only here to tell you that 'miniagent h/help' gives better overview of usage than 'miniagent -h'.")

	vnShort := fs.String("vn", defaults.Vendor, "Set the vendor to use: gigachat, openai or test. Mutually exclusive with vendor flag.")
	vnLong := fs.String("vendor", defaults.Vendor, "Set the vendor to use: gigachat, openai or test. Mutually exclusive with vn flag.")

	cmShort := fs.String("cm", defaults.ChatModel, "Set the chat model to use. Mutually exclusive with chat-model flag.")
	cmLong := fs.String("chat-model", defaults.ChatModel, "Set the chat model to use. Mutually exclusive with cm flag.")

	dShort := fs.String("d", defaults.DataDir, "Set the directory where the agent writes agent.log. Mutually exclusive with data-dir flag.")
	dLong := fs.String("data-dir", defaults.DataDir, "Set the directory where the agent writes agent.log. Mutually exclusive with d flag.")

	eShort := fs.String("e", defaults.EnvFile, "Set the dotenv file to read secrets from. Mutually exclusive with env-file flag.")
	eLong := fs.String("env-file", defaults.EnvFile, "Set the dotenv file to read secrets from. Mutually exclusive with e flag.")

	mtcShort := fs.Int("mtc", defaults.MaxToolCalls, "Set the maximum amount of tool calls per query. Mutually exclusive with max-tool-calls flag.")
	mtcLong := fs.Int("max-tool-calls", defaults.MaxToolCalls, "Set the maximum amount of tool calls per query. Mutually exclusive with mtc flag.")

	printRawShort := fs.Bool("r", defaults.PrintRaw, "Set to true to print raw output (no banner, don't attempt to use 'glow').")
	printRawLong := fs.Bool("raw", defaults.PrintRaw, "Set to true to print raw output (no banner, don't attempt to use 'glow').")

	khShort := fs.Bool("kh", defaults.KeepHistory, "Set to true to keep the conversation history between chat turns.")
	khLong := fs.Bool("keep-history", defaults.KeepHistory, "Set to true to keep the conversation history between chat turns.")

	agentShort := fs.Bool("a", defaults.Agent, "Set to true to run 'query' through the agent.")
	agentLong := fs.Bool("agent", defaults.Agent, "Set to true to run 'query' through the agent.")

	err := fs.Parse(args)
	if err != nil {
		return Configurations{}, []string{}, fmt.Errorf("failed to parse args: %w", err)
	}

	vendor, err := utils.ReturnNonDefault(*vnShort, *vnLong, defaults.Vendor)
	if err != nil {
		return Configurations{}, nil, flagError(err, "vn", "vendor")
	}
	chatModel, err := utils.ReturnNonDefault(*cmShort, *cmLong, defaults.ChatModel)
	if err != nil {
		return Configurations{}, nil, flagError(err, "cm", "chat-model")
	}
	dataDir, err := utils.ReturnNonDefault(*dShort, *dLong, defaults.DataDir)
	if err != nil {
		return Configurations{}, nil, flagError(err, "d", "data-dir")
	}
	envFile, err := utils.ReturnNonDefault(*eShort, *eLong, defaults.EnvFile)
	if err != nil {
		return Configurations{}, nil, flagError(err, "e", "env-file")
	}
	maxToolCalls, err := utils.ReturnNonDefault(*mtcShort, *mtcLong, defaults.MaxToolCalls)
	if err != nil {
		return Configurations{}, nil, flagError(err, "mtc", "max-tool-calls")
	}

	return Configurations{
		Vendor:       vendor,
		ChatModel:    chatModel,
		DataDir:      dataDir,
		EnvFile:      envFile,
		MaxToolCalls: maxToolCalls,
		PrintRaw:     *printRawShort || *printRawLong,
		KeepHistory:  *khShort || *khLong,
		Agent:        *agentShort || *agentLong,
	}, fs.Args(), nil
}
