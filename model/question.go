package model

// Question is a single wizard step.
type Question struct {
	Title       string   `yaml:"title" json:"title"`
	VarName     string   `yaml:"var" json:"var"`
	Description string   `yaml:"description" json:"description"`
	Presets     []string `yaml:"presets,omitempty" json:"presets,omitempty"`
}

// HasPresets reports whether the question is answered through the preset prompt
func (q Question) HasPresets() bool {
	return len(q.Presets) > 0
}

// Questionnaire is an ordered, immutable list of questions selected by a token.
type Questionnaire struct {
	selector  string
	name      string
	questions []Question
}

// NewQuestionnaire copies the questions so later changes to the slice do not leak in
func NewQuestionnaire(selector, name string, questions []Question) Questionnaire {
	qs := make([]Question, len(questions))
	for i, q := range questions {
		q.Presets = append([]string(nil), q.Presets...)
		qs[i] = q
	}
	return Questionnaire{selector: selector, name: name, questions: qs}
}

func (q Questionnaire) Selector() string { return q.selector }
func (q Questionnaire) Name() string     { return q.name }
func (q Questionnaire) Len() int         { return len(q.questions) }

// Question returns the question at step i. The caller keeps i in [0, Len()).
func (q Questionnaire) Question(i int) Question {
	qs := q.questions[i]
	qs.Presets = append([]string(nil), qs.Presets...)
	return qs
}

// Questions returns a copy of all questions in order.
func (q Questionnaire) Questions() []Question {
	out := make([]Question, len(q.questions))
	for i := range q.questions {
		out[i] = q.Question(i)
	}
	return out
}

// Answer is one entry of the final answer map. Value is nil for unfilled steps.
type Answer struct {
	VarName string  `json:"var" bson:"var"`
	Value   *string `json:"value" bson:"value"`
}

// AnswerMap holds the answers for every step in questionnaire order
type AnswerMap []Answer

// Map returns the answers keyed by variable name.
func (a AnswerMap) Map() map[string]*string {
	m := make(map[string]*string, len(a))
	for _, ans := range a {
		m[ans.VarName] = ans.Value
	}
	return m
}

// Filled counts the answered steps.
func (a AnswerMap) Filled() int {
	n := 0
	for _, ans := range a {
		if ans.Value != nil {
			n++
		}
	}
	return n
}
