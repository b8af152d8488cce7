// Package dialog drives the per-user conversation state machine: it consumes
// inbound events, enforces legal transitions, and turns completed flows into
// generation calls.
package dialog

// Event is an inbound occurrence delivered by the transport.
type Event interface{ isEvent() }

// Command is a slash command such as /start or /reset.
type Command struct {
	Name string
}

// ButtonPress carries the payload of an inline keyboard press.
type ButtonPress struct {
	Data string
}

// TextMessage carries free-form text, normally the topic.
type TextMessage struct {
	Text string
}

func (Command) isEvent()     {}
func (ButtonPress) isEvent() {}
func (TextMessage) isEvent() {}

// Choice is one selectable button offered with an outbound message.
type Choice struct {
	Label string
	Data  string
}

// Outbound is a reply instruction for the transport. Choices, when present,
// should be rendered as an inline keyboard.
type Outbound struct {
	Text    string
	Choices []Choice
}

// Sink delivers outbound messages. The engine calls it in reply order from a
// single goroutine, so implementations only need to preserve call order.
type Sink func(Outbound) error
