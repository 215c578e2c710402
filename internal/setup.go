package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/chat"
	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/text"
	"github.com/baalimago/miniagent/internal/utils"
)

type Mode int

const (
	HELP Mode = iota
	QUERY
	CHAT
	AGENT
	VERSION
)

// Command is the work main runs once setup is done.
type Command interface {
	Run(ctx context.Context) error
}

type printCommand string

func (p printCommand) Run(ctx context.Context) error {
	_, err := fmt.Fprint(os.Stdout, string(p))
	return err
}

// oneShot sends a single query, then exits.
type oneShot struct {
	querier models.Querier
	query   string
}

func (o *oneShot) Run(ctx context.Context) error {
	_, err := o.querier.TextQuery(ctx, o.query)
	if errors.Is(err, context.Canceled) {
		return utils.ErrUserInitiatedExit
	}
	return err
}

func getModeFromArgs(cmd string) (Mode, error) {
	switch cmd {
	case "chat", "c":
		return CHAT, nil
	case "agent", "a":
		return AGENT, nil
	case "query", "q":
		return QUERY, nil
	case "help", "h":
		return HELP, nil
	case "version", "v":
		return VERSION, nil
	default:
		return HELP, fmt.Errorf("unknown command: '%s'", cmd)
	}
}

func versionString() (string, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", errors.New("failed to read build info")
	}
	return fmt.Sprintf("version: %v, go version: %v, checksum: %v\n", bi.Main.Version, bi.GoVersion, bi.Main.Sum), nil
}

// loadTextConfig from textConfig.json in the config dir, with flag overrides
// applied on top.
func loadTextConfig(flagSet Configurations) (text.Configurations, error) {
	confDir, err := utils.GetConfigDir()
	if err != nil {
		return text.Configurations{}, fmt.Errorf("failed to find config dir: %w", err)
	}
	tConf, err := utils.LoadConfigFromFile(confDir, "textConfig.json", &text.Default)
	if err != nil {
		return text.Configurations{}, fmt.Errorf("failed to load text config: %w", err)
	}
	tConf.ConfigDir = confDir
	applyFlagOverrides(&tConf, flagSet)
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK(fmt.Sprintf("using vendor: '%v', config dir: '%v'\n", tConf.Vendor, confDir))
	}
	return tConf, nil
}

func applyFlagOverrides(tConf *text.Configurations, flagSet Configurations) {
	if flagSet.Vendor != defaultFlags.Vendor {
		tConf.Vendor = flagSet.Vendor
	}
	if flagSet.ChatModel != defaultFlags.ChatModel {
		tConf.Model = flagSet.ChatModel
	}
	if flagSet.DataDir != defaultFlags.DataDir {
		tConf.DataDir = flagSet.DataDir
	}
	if flagSet.MaxToolCalls != defaultFlags.MaxToolCalls {
		tConf.MaxToolCalls = flagSet.MaxToolCalls
	}
	tConf.Raw = flagSet.PrintRaw
	tConf.KeepHistory = flagSet.KeepHistory
}

// Setup parses args and returns the command to run.
func Setup(usage string, args []string) (Command, error) {
	flagSet, args, err := parseFlags(defaultFlags, args)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return printCommand(usage), nil
	}
	mode, err := getModeFromArgs(args[0])
	if err != nil {
		return nil, err
	}
	switch mode {
	case HELP:
		return printCommand(usage), nil
	case VERSION:
		v, err := versionString()
		if err != nil {
			return nil, err
		}
		return printCommand(v), nil
	}

	tConf, err := loadTextConfig(flagSet)
	if err != nil {
		return nil, err
	}
	env, err := utils.LoadEnv(flagSet.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	useAgent := mode == AGENT || (mode == QUERY && flagSet.Agent)
	q, err := CreateTextQuerier(tConf, env, useAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create text querier: %w", err)
	}

	switch mode {
	case CHAT:
		return chat.New(q, chat.ChatGreeting, tConf.Raw), nil
	case AGENT:
		return chat.New(q, chat.AgentGreeting, tConf.Raw), nil
	case QUERY:
		query := strings.TrimSpace(strings.Join(args[1:], " "))
		if query == "" {
			return nil, errors.New("found no query, usage: miniagent query <text>")
		}
		return &oneShot{querier: q, query: query}, nil
	default:
		return nil, fmt.Errorf("unknown mode: %v", mode)
	}
}
