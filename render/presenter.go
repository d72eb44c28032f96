package render

import (
	"QuizBot/catalog"
	"QuizBot/model"
	"fmt"
	"strconv"
)

// Reply keyboard captions.
const (
	ButtonBack = "🔙 Back"
	ButtonExit = "🚫 Exit"
	ButtonInfo = "ℹ️ Info"
	ButtonSkip = "➡️ Skip"
)

// Inline callback data.
const (
	PresetPrefix = "coms_select_"
	CancelData   = "cancel_soft"
)

const (
	maxButtonRunes = 255
	unfilled       = "[unfilled]"
)

// Step renders the prompt for step idx of total.
func Step(q model.Question, idx, total int) Message {
	var buttons []Button
	if idx > 0 {
		buttons = append(buttons, Button{Text: ButtonBack})
	}
	buttons = append(buttons, Button{Text: ButtonExit}, Button{Text: ButtonInfo}, Button{Text: ButtonSkip})

	return Message{
		Text:     fmt.Sprintf("[%d/%d] %s", idx+1, total, q.Description),
		Controls: Controls{Kind: ControlsReply, Rows: chunk(buttons, 2)},
	}
}

// Presets renders the ephemeral selection prompt for a preset question.
func Presets(options []string) Message {
	items := make([]listItem, len(options))
	for i, opt := range options {
		items[i] = listItem{key: strconv.Itoa(i), label: opt}
	}
	return Message{Text: "Choose a value:", Controls: list(items, PresetPrefix)}
}

// Menu renders the questionnaire picker shown on /start.
func Menu(c *catalog.Catalog) Message {
	qns := c.All()
	items := make([]listItem, len(qns))
	for i, qn := range qns {
		items[i] = listItem{key: qn.Selector(), label: qn.Name()}
	}
	return Message{Text: "Hi! This is a quiz demo bot.", Controls: list(items, catalog.MenuPrefix)}
}

// Summary lists every question with its answer in questionnaire order.
func Summary(qn model.Questionnaire, answers model.AnswerMap) Document {
	doc := Document{Heading: "Your answers:"}
	for i, q := range qn.Questions() {
		value := unfilled
		if i < len(answers) && answers[i].Value != nil {
			value = *answers[i].Value
		}
		doc.Items = append(doc.Items, fmt.Sprintf("%s (%s)", q.Title, value))
	}
	return doc
}

type listItem struct {
	key   string
	label string
}

// list builds a one-column inline keyboard ending with a cancel button.
func list(items []listItem, prefix string) Controls {
	if len(items) == 0 {
		return Controls{Kind: ControlsInline, Rows: [][]Button{{{Text: "🚫 No entries", Data: CancelData}}}}
	}
	rows := make([][]Button, 0, len(items)+1)
	for _, item := range items {
		rows = append(rows, []Button{{Text: truncate(item.label), Data: prefix + item.key}})
	}
	rows = append(rows, []Button{{Text: "🚫 Cancel", Data: CancelData}})
	return Controls{Kind: ControlsInline, Rows: rows}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxButtonRunes {
		return s
	}
	return string(r[:maxButtonRunes]) + "..."
}
