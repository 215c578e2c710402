package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Input map[string]any

type Call struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Inputs Input  `json:"inputs,omitempty"`
}

// PrettyPrint the call, showing name and what input params is used
// on a concise way
func (c Call) PrettyPrint() string {
	keys := make([]string, 0, len(c.Inputs))
	for k := range c.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]string, 0, len(keys))
	for _, k := range keys {
		params = append(params, fmt.Sprintf("'%v': '%v'", k, c.Inputs[k]))
	}
	return fmt.Sprintf("Call: '%s', inputs: [ %s ]", c.Name, strings.Join(params, ","))
}

// ArgumentsJSON returns the inputs as a json object string. Vendors differ
// in whether they want it as an object or a string, this covers the latter.
func (c Call) ArgumentsJSON() string {
	if c.Inputs == nil {
		return "{}"
	}
	b, err := json.Marshal(c.Inputs)
	if err != nil {
		return "{}"
	}
	return string(b)
}

type Specification struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Inputs      *InputSchema `json:"parameters,omitempty"`
}

type InputSchema struct {
	Type       string                     `json:"type"`
	Required   []string                   `json:"required"`
	Properties map[string]ParameterObject `json:"properties"`
}

// Patch the input schema so that vendors which are strict about empty
// fields accept it.
func (is *InputSchema) Patch() {
	if is.Required == nil {
		is.Required = make([]string, 0)
	}
	if is.Properties == nil {
		is.Properties = make(map[string]ParameterObject)
	}
	if is.Type == "" {
		is.Type = "object"
	}
}

type ParameterObject struct {
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Enum        *[]string        `json:"enum,omitempty"`
	Items       *ParameterObject `json:"items,omitempty"`
}
