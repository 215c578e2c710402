package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/baalimago/miniagent/internal/models"
	"github.com/baalimago/miniagent/internal/utils"
)

const (
	AppendToFileName = "append_to_file"

	DefaultDataDir = "agent_data"
	LogFileName    = "agent.log"
)

// AppendToFile appends one timestamped line per call to the agent log.
type AppendToFile struct {
	Dir      string
	FileName string
	now      func() time.Time
	mu       sync.Mutex
}

type appendToFileArgs struct {
	Query   string `mapstructure:"query"`
	Content string `mapstructure:"content"`
}

func NewAppendToFile(dir string) *AppendToFile {
	return &AppendToFile{
		Dir:      dir,
		FileName: LogFileName,
		now:      time.Now,
	}
}

func (a *AppendToFile) Specification() models.Specification {
	return models.Specification{
		Name:        AppendToFileName,
		Description: "Append a line to the local text log.",
		Inputs: &models.InputSchema{
			Type: "object",
			Properties: map[string]models.ParameterObject{
				"query": {
					Type:        "string",
					Description: "Text of the search query.",
				},
				"content": {
					Type:        "string",
					Description: "Found content to write to the file.",
				},
			},
			Required: []string{"query", "content"},
		},
	}
}

// Path of the log file.
func (a *AppendToFile) Path() string {
	return filepath.Join(a.Dir, a.FileName)
}

// FormatLine as '[DD.MM.YYYY HH:MM] <query>: <content>\n'. Trailing whitespace
// of the content is dropped so that each call is exactly one line.
func FormatLine(stamp time.Time, query, content string) string {
	return fmt.Sprintf("[%v] %v: %v\n",
		stamp.Format(utils.StampLayout),
		query,
		strings.TrimRightFunc(content, unicode.IsSpace))
}

func (a *AppendToFile) Call(ctx context.Context, input models.Input) (string, error) {
	var args appendToFileArgs
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	if args.Query == "" {
		return "", fmt.Errorf("query must be a non-empty string")
	}
	if args.Content == "" {
		return "", fmt.Errorf("content must be a non-empty string")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := a.now
	if now == nil {
		now = time.Now
	}
	line := FormatLine(now(), args.Query, args.Content)

	a.mu.Lock()
	defer a.mu.Unlock()
	f, err := os.OpenFile(a.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return "", fmt.Errorf("failed to write log: %w", err)
	}
	return fmt.Sprintf("written to %v", a.FileName), nil
}
