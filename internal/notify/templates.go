package notify

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind names the notification message types.
type Kind string

const (
	KindWelcome  Kind = "welcome"
	KindReminder Kind = "reminder"
	KindExpiry   Kind = "expiry"
)

//go:embed defaults.yaml
var defaultTemplatesYAML []byte

type defaultTemplates struct {
	Welcome string `yaml:"welcome"`
	// WelcomeJoin greets members without an expiry date: plain joins and
	// lifetime plans. The paid welcome would otherwise claim a
	// subscription "until forever" for someone who has not bought one.
	WelcomeJoin string `yaml:"welcome_join"`
	Reminder    string `yaml:"reminder"`
	Expiry      string `yaml:"expiry"`
}

func loadDefaults() (defaultTemplates, error) {
	var d defaultTemplates
	if err := yaml.Unmarshal(defaultTemplatesYAML, &d); err != nil {
		return d, fmt.Errorf("parse default templates: %w", err)
	}
	return d, nil
}

func (d defaultTemplates) forKind(kind Kind) string {
	switch kind {
	case KindWelcome:
		return d.Welcome
	case KindReminder:
		return d.Reminder
	case KindExpiry:
		return d.Expiry
	default:
		return ""
	}
}

// Render substitutes {{placeholder}} tokens. Unknown placeholders are left
// in place so a typo in an owner's template fails visibly, not silently.
func Render(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
