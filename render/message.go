package render

import (
	"fmt"
	"strings"
)

// ControlKind tells the channel what to do with a message's interactive controls.
type ControlKind int

const (
	// ControlsNone sends or edits the message without any markup.
	ControlsNone ControlKind = iota
	// ControlsReply attaches a custom reply keyboard.
	ControlsReply
	// ControlsInline attaches inline buttons to the message.
	ControlsInline
	// ControlsRemove removes the custom reply keyboard.
	ControlsRemove
)

// Button is a single selectable control. Data is only used by inline buttons.
type Button struct {
	Text string
	Data string
}

// Controls describes the affordances shown alongside a message
type Controls struct {
	Kind ControlKind
	Rows [][]Button
}

// Buttons flattens the control rows.
func (c Controls) Buttons() []Button {
	var out []Button
	for _, row := range c.Rows {
		out = append(out, row...)
	}
	return out
}

// Document is a heading followed by a numbered list.
type Document struct {
	Heading string
	Items   []string
}

// Plain renders the document without markup.
func (d Document) Plain() string {
	var sb strings.Builder
	sb.WriteString(d.Heading)
	for i, item := range d.Items {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, item))
	}
	return sb.String()
}

// Message is a transport-neutral outbound message.
type Message struct {
	Text     string
	Document *Document
	Controls Controls
}

// Content returns the text a reader sees, with documents rendered plainly.
func (m Message) Content() string {
	if m.Document != nil {
		return m.Document.Plain()
	}
	return m.Text
}

// Text builds a plain message with no controls. s is sent verbatim.
func Text(s string) Message {
	return Message{Text: s}
}

func chunk(buttons []Button, size int) [][]Button {
	var rows [][]Button
	for size < len(buttons) {
		buttons, rows = buttons[size:], append(rows, buttons[:size])
	}
	if len(buttons) > 0 {
		rows = append(rows, buttons)
	}
	return rows
}
