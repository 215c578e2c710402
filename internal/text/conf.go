package text

import (
	"github.com/baalimago/miniagent/internal/tools"
)

const (
	ChatPrompt = "Сегодня {{date}}. Ты полезный ассистент. Вежливо, кратко и по делу отвечай на вопросы."

	AgentPrompt = "Сегодня {{date}}. Ты полезный ассистент.\n" +
		"ВСЕГДА действуй по шагам:\n" +
		"1) используй инструмент search_web, чтобы найти актуальные сведения;\n" +
		"2) составь краткий конспект (1-4 предложения) + 3-5 лучших ссылок;\n" +
		"3) вызови append_to_file(query='<текст поискового запроса>', content='<конспект и ссылки>');\n" +
		"4) затем выдай пользователю четкий финальный ответ + найденные ссылки.\n" +
		"Если поиск ничего не дал, так и скажи в своем финальном ответе."

	// NoLimit disables max-tool-calls or tool-output-rune-limit. Zero can't
	// be used, as zero fields are refilled from Default on load.
	NoLimit = -1

	// MaxShortenedNewlines of tool output shown in the terminal
	MaxShortenedNewlines = 5
)

// Configurations used to setup the chat and agent loops. Stored as
// textConfig.json in the config dir.
type Configurations struct {
	// Vendor is one of 'gigachat', 'openai' or 'test'
	Vendor string `json:"vendor"`
	// Model overrides the model of the vendor config, if set
	Model       string `json:"model,omitempty"`
	ChatPrompt  string `json:"chat-prompt"`
	AgentPrompt string `json:"agent-prompt"`
	// MaxToolCalls per user query. Calls past the budget are answered
	// with an error, and the model gets one more round to reply. NoLimit
	// means no tool calls at all.
	MaxToolCalls int `json:"max-tool-calls"`
	// ToolOutputRuneLimit limits the amount of runes a tool may return
	// before the output is truncated. NoLimit disables truncation.
	ToolOutputRuneLimit int    `json:"tool-output-rune-limit"`
	DisableStream       bool   `json:"disable-stream"`
	DataDir             string `json:"data-dir"`
	SearchRegion        string `json:"search-region"`
	// SearchTimeLimit is d, w, m, y or 'any'
	SearchTimeLimit  string `json:"search-time-limit"`
	SearchMaxResults int    `json:"search-max-results"`

	Raw         bool   `json:"-"`
	KeepHistory bool   `json:"-"`
	ConfigDir   string `json:"-"`
}

var Default = Configurations{
	Vendor:              "gigachat",
	ChatPrompt:          ChatPrompt,
	AgentPrompt:         AgentPrompt,
	MaxToolCalls:        10,
	ToolOutputRuneLimit: 21600,
	DataDir:             tools.DefaultDataDir,
	SearchRegion:        tools.DefaultRegion,
	SearchTimeLimit:     tools.DefaultTimeLimit,
	SearchMaxResults:    tools.DefaultMaxResults,
}

// ToolsConfig for the agent tools.
func (c Configurations) ToolsConfig() tools.Config {
	return tools.Config{
		DataDir:    c.DataDir,
		Region:     c.SearchRegion,
		TimeLimit:  c.SearchTimeLimit,
		MaxResults: c.SearchMaxResults,
	}
}
