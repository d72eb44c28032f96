package catalog

import (
	"QuizBot/model"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MenuPrefix prefixes the callback data of menu buttons that start a questionnaire.
const MenuPrefix = "menu_select_"

// Catalog is a read-only registry of questionnaires keyed by selector.
type Catalog struct {
	byToken map[string]model.Questionnaire
	order   []string
}

// New builds a catalog, rejecting duplicate selectors and var names.
func New(questionnaires ...model.Questionnaire) (*Catalog, error) {
	c := &Catalog{byToken: make(map[string]model.Questionnaire, len(questionnaires))}
	for _, qn := range questionnaires {
		if qn.Selector() == "" {
			return nil, fmt.Errorf("%w: empty selector for %q", model.ErrInvalidQuestionnaire, qn.Name())
		}
		if _, ok := c.byToken[qn.Selector()]; ok {
			return nil, fmt.Errorf("%w: duplicate selector %q", model.ErrInvalidQuestionnaire, qn.Selector())
		}
		seen := make(map[string]bool, qn.Len())
		for _, q := range qn.Questions() {
			if q.VarName == "" {
				return nil, fmt.Errorf("%w: question %q in %q has no var name", model.ErrInvalidQuestionnaire, q.Title, qn.Selector())
			}
			if seen[q.VarName] {
				return nil, fmt.Errorf("%w: duplicate var %q in %q", model.ErrInvalidQuestionnaire, q.VarName, qn.Selector())
			}
			seen[q.VarName] = true
		}
		c.byToken[qn.Selector()] = qn
		c.order = append(c.order, qn.Selector())
	}
	return c, nil
}

// Lookup returns the questionnaire registered under selector.
func (c *Catalog) Lookup(selector string) (model.Questionnaire, bool) {
	qn, ok := c.byToken[selector]
	return qn, ok
}

// Resolve decodes an origin token such as "menu_select_1".
func (c *Catalog) Resolve(token string) (model.Questionnaire, error) {
	selector, ok := strings.CutPrefix(token, MenuPrefix)
	if !ok || selector == "" {
		return model.Questionnaire{}, fmt.Errorf("%w: %q", model.ErrInvalidOrigin, token)
	}
	qn, ok := c.Lookup(selector)
	if !ok {
		return model.Questionnaire{}, fmt.Errorf("%w: unknown selector %q", model.ErrInvalidOrigin, selector)
	}
	return qn, nil
}

// Token is the origin token for a selector.
func Token(selector string) string {
	return MenuPrefix + selector
}

// All returns the questionnaires in registration order.
func (c *Catalog) All() []model.Questionnaire {
	out := make([]model.Questionnaire, 0, len(c.order))
	for _, sel := range c.order {
		out = append(out, c.byToken[sel])
	}
	return out
}

type fileQuestionnaire struct {
	Selector  string           `yaml:"selector"`
	Name      string           `yaml:"name"`
	Questions []model.Question `yaml:"questions"`
}

type file struct {
	Questionnaires []fileQuestionnaire `yaml:"questionnaires"`
}

// Parse reads a YAML catalog definition.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}
	qns := make([]model.Questionnaire, 0, len(f.Questionnaires))
	for _, fq := range f.Questionnaires {
		qns = append(qns, model.NewQuestionnaire(fq.Selector, fq.Name, fq.Questions))
	}
	return New(qns...)
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog %s: %w", path, err)
	}
	return Parse(data)
}
