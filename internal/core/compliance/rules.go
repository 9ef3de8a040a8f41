package compliance

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/agenthands/daybrief/internal/core/model"
	"gopkg.in/yaml.v3"
)

// Rule is one declarative compliance rule. Tier decides what a match does:
// red removes the containing section from the public variant (or, with
// Kill set, aborts the public variant entirely), orange substitutes the
// matched span with Replacement, yellow appends Annotation.
type Rule struct {
	ID          string     `yaml:"id"`
	Tier        model.Tier `yaml:"tier"`
	Patterns    []string   `yaml:"patterns,omitempty"`
	Replacement string     `yaml:"replacement,omitempty"`
	Annotation  string     `yaml:"annotation,omitempty"`
	Kill        bool       `yaml:"kill,omitempty"`
	Note        string     `yaml:"note,omitempty"`

	compiled []*regexp.Regexp
}

func (r *Rule) compile() error {
	r.compiled = r.compiled[:0]
	for _, p := range r.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return fmt.Errorf("rule %s: pattern %q: %w", r.ID, p, err)
		}
		r.compiled = append(r.compiled, re)
	}
	return nil
}

// match returns the first matched span in text, or "" when nothing matches.
func (r *Rule) match(text string) string {
	for _, re := range r.compiled {
		if span := re.FindString(text); span != "" {
			return span
		}
	}
	return ""
}

// RuleSet is an ordered rule cascade. Evaluation order is fixed by tier
// (red, orange, yellow) and, within a tier, by the order rules were
// declared.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules decodes and compiles a YAML rule file.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i := range rs.Rules {
		r := &rs.Rules[i]
		switch r.Tier {
		case model.TierRed, model.TierOrange, model.TierYellow:
		default:
			return nil, fmt.Errorf("rule %s: unknown tier %q", r.ID, r.Tier)
		}
		if r.Tier == model.TierOrange && r.Replacement == "" {
			return nil, fmt.Errorf("rule %s: orange rule needs a replacement", r.ID)
		}
		if r.Tier == model.TierYellow && r.Annotation == "" {
			return nil, fmt.Errorf("rule %s: yellow rule needs an annotation", r.ID)
		}
		if err := r.compile(); err != nil {
			return nil, err
		}
	}

	// Stable-sort by tier so the cascade order never depends on file
	// layout; declaration order is preserved within a tier.
	order := map[model.Tier]int{model.TierRed: 0, model.TierOrange: 1, model.TierYellow: 2}
	sort.SliceStable(rs.Rules, func(i, j int) bool {
		return order[rs.Rules[i].Tier] < order[rs.Rules[j].Tier]
	})
	return &rs, nil
}

// LoadRules reads and parses a rule file from disk.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

func (rs *RuleSet) tier(t model.Tier) []*Rule {
	var out []*Rule
	for i := range rs.Rules {
		if rs.Rules[i].Tier == t {
			out = append(out, &rs.Rules[i])
		}
	}
	return out
}
