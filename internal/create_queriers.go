package internal

import (
	"fmt"
	"os"

	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/text"
	"github.com/baalimago/miniagent/internal/tools"
	"github.com/baalimago/miniagent/internal/utils"
	"github.com/baalimago/miniagent/internal/vendors/echo"
	"github.com/baalimago/miniagent/internal/vendors/gigachat"
	"github.com/baalimago/miniagent/internal/vendors/openai"
)

// CreateCompleter for the vendor in tConf. The vendor config is loaded from
// <vendor>.json in the config dir, and the model is overridden by tConf.Model.
func CreateCompleter(tConf text.Configurations, env *utils.Env) (models.Completer, error) {
	switch tConf.Vendor {
	case "gigachat":
		g, err := utils.LoadConfigFromFile(tConf.ConfigDir, "gigachat.json", &gigachat.Default)
		if err != nil {
			return nil, fmt.Errorf("failed to load gigachat config: %w", err)
		}
		if tConf.Model != "" {
			g.Model = tConf.Model
		}
		if err := g.Setup(env); err != nil {
			return nil, fmt.Errorf("failed to setup gigachat: %w", err)
		}
		return &g, nil
	case "openai":
		o, err := utils.LoadConfigFromFile(tConf.ConfigDir, "openai.json", &openai.Default)
		if err != nil {
			return nil, fmt.Errorf("failed to load openai config: %w", err)
		}
		if tConf.Model != "" {
			o.Model = tConf.Model
		}
		if err := o.Setup(env); err != nil {
			return nil, fmt.Errorf("failed to setup openai: %w", err)
		}
		return &o, nil
	case "test", "echo":
		return &echo.Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown vendor: '%v'", tConf.Vendor)
	}
}

// CreateTextQuerier returns the plain chat querier, or the agent with its
// tools registered if useAgent is set.
func CreateTextQuerier(tConf text.Configurations, env *utils.Env, useAgent bool) (models.Querier, error) {
	completer, err := CreateCompleter(tConf, env)
	if err != nil {
		return nil, err
	}
	if !useAgent {
		return text.NewQuerier(completer, tConf, os.Stdout), nil
	}
	registry, err := tools.Init(tConf.ToolsConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to init tools: %w", err)
	}
	return text.NewAgent(completer, registry, tConf, os.Stdout), nil
}
