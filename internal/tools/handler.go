package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
)

// EmptyResponse is returned to the model instead of empty output. Some
// vendors reject tool messages without content.
const EmptyResponse = "<EMPTY-RESPONSE>"

// Config for the agent tools.
type Config struct {
	// DataDir is where append_to_file writes its log
	DataDir string
	// Region is the DuckDuckGo region, such as 'ru-ru' or 'us-en'
	Region string
	// TimeLimit is the DuckDuckGo time filter: d, w, m, y or AnyTime
	TimeLimit string
	// MaxResults is used when the model doesn't specify max_results
	MaxResults int
}

// Init a registry with the agent tools: search_web and append_to_file.
// The data dir is created if it doesn't exist.
func Init(conf Config) (*Registry, error) {
	if conf.DataDir == "" {
		conf.DataDir = DefaultDataDir
	}
	if err := os.MkdirAll(conf.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	r := NewRegistry()
	r.Set(NewSearchWeb(conf.Region, conf.TimeLimit, conf.MaxResults))
	r.Set(NewAppendToFile(conf.DataDir))
	return r, nil
}

// Invoke the call, and gather both error and output in the same string
func (r *Registry) Invoke(ctx context.Context, call models.Call) string {
	t, exists := r.Get(call.Name)
	if !exists {
		return "ERROR: unknown tool call: " + call.Name
	}
	if misc.Truthy(os.Getenv("DEBUG_CALL")) {
		ancli.Noticef("Invoke call: %v", debug.IndentedJsonFmt(call))
	}
	inp := call.Inputs
	if inp == nil {
		inp = models.Input{}
	}
	out, err := t.Call(ctx, inp)
	if err != nil {
		return fmt.Sprintf("ERROR: failed to run tool: %v, error: %v", call.Name, err)
	}
	if out == "" {
		return EmptyResponse
	}
	return out
}
