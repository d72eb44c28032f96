package wizard

import "fmt"

// EventKind enumerates the inputs a session understands.
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventFreeText
	EventPresetSelect
	EventGoBack
	EventSkip
	EventHelp
	EventAbort
	EventDismiss
)

var eventNames = map[EventKind]string{
	EventUnrecognized: "unrecognized",
	EventFreeText:     "free_text",
	EventPresetSelect: "preset_select",
	EventGoBack:       "go_back",
	EventSkip:         "skip",
	EventHelp:         "help",
	EventAbort:        "abort",
	EventDismiss:      "dismiss",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a user action already translated from the transport.
type Event struct {
	Kind  EventKind
	Text  string // EventFreeText
	Index int    // EventPresetSelect
}

func FreeText(value string) Event  { return Event{Kind: EventFreeText, Text: value} }
func PresetSelect(index int) Event { return Event{Kind: EventPresetSelect, Index: index} }
func GoBack() Event                { return Event{Kind: EventGoBack} }
func Skip() Event                  { return Event{Kind: EventSkip} }
func Help() Event                  { return Event{Kind: EventHelp} }
func Abort() Event                 { return Event{Kind: EventAbort} }
func Dismiss() Event               { return Event{Kind: EventDismiss} }
func Unrecognized() Event          { return Event{Kind: EventUnrecognized} }
