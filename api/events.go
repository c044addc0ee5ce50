package api

import (
	"encoding/json"

	"isnad/eventbus"
)

// newEvent folds any JSON-marshalable value into an eventbus.Event payload
// map, so handlers can publish domain structs directly.
func newEvent(topic string, v any) eventbus.Event {
	raw, err := json.Marshal(v)
	if err != nil {
		return eventbus.Event{Topic: topic}
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return eventbus.Event{Topic: topic}
	}
	return eventbus.Event{Topic: topic, Payload: payload}
}
