// Package prompts renders the embedded prompt catalog.
package prompts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var catalogYAML []byte

const (
	Identity       = "identity"
	Wisdom         = "wisdom"
	MysteriousName = "mysterious_name"
	Quests         = "quests"
	MirrorScenario = "mirror_scenario"
	MirrorEvaluate = "mirror_evaluate"
	Feat           = "feat"
	HabitFeedback  = "habit_feedback"
	Advisor        = "advisor"
	Moderation     = "moderation"
)

type entry struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type file struct {
	Version int              `yaml:"version"`
	Prompts map[string]entry `yaml:"prompts"`
}

type compiled struct {
	system *template.Template
	user   *template.Template
}

type Catalog struct {
	prompts map[string]compiled
}

var funcs = template.FuncMap{
	"quote": func(s string) string { return strconv.Quote(strings.TrimSpace(s)) },
	"toJSON": func(v any) string {
		raw, err := json.Marshal(v)
		if err != nil {
			return "null"
		}
		return string(raw)
	},
}

// Parse compiles a catalog from YAML.
func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("prompts yaml: %w", err)
	}
	if len(f.Prompts) == 0 {
		return nil, fmt.Errorf("prompts yaml: no prompts")
	}
	c := &Catalog{prompts: make(map[string]compiled, len(f.Prompts))}
	for name, e := range f.Prompts {
		sys, err := template.New(name + ".system").Funcs(funcs).Option("missingkey=error").Parse(strings.TrimSpace(e.System))
		if err != nil {
			return nil, fmt.Errorf("prompt %s system: %w", name, err)
		}
		usr, err := template.New(name + ".user").Funcs(funcs).Option("missingkey=error").Parse(strings.TrimSpace(e.User))
		if err != nil {
			return nil, fmt.Errorf("prompt %s user: %w", name, err)
		}
		c.prompts[name] = compiled{system: sys, user: usr}
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(catalogYAML)
	})
	return defaultCat, defaultErr
}

// Render executes the named prompt with data.
func (c *Catalog) Render(name string, data any) (system string, user string, err error) {
	p, ok := c.prompts[name]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt %q", name)
	}
	var sb, ub bytes.Buffer
	if err := p.system.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s system: %w", name, err)
	}
	if err := p.user.Execute(&ub, data); err != nil {
		return "", "", fmt.Errorf("render %s user: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), strings.TrimSpace(ub.String()), nil
}
