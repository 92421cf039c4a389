package model

import "encoding/json"

// WebhookRequest is an inbound Yandex.Dialogs request.
// See https://yandex.ru/dev/dialogs/alice/doc/request.html
type WebhookRequest struct {
	// Session and Version are opaque to us and echoed back verbatim;
	// only session.new is ever inspected.
	Session json.RawMessage `json:"session"`
	Version json.RawMessage `json:"version"`
	Request Command         `json:"request"`
}

// Command carries the recognized user utterance.
type Command struct {
	Command string `json:"command"`
	NLU     NLU    `json:"nlu"`
}

// NLU holds the tokenized form of the utterance.
type NLU struct {
	Tokens []string `json:"tokens"`
}

// NewSession reports whether this request opens a new dialog session.
func (r *WebhookRequest) NewSession() bool {
	var meta struct {
		New bool `json:"new"`
	}
	if err := json.Unmarshal(r.Session, &meta); err != nil {
		return false
	}
	return meta.New
}

// WebhookResponse is the reply envelope.
// See https://yandex.ru/dev/dialogs/alice/doc/response.html
type WebhookResponse struct {
	Session  json.RawMessage `json:"session"`
	Version  json.RawMessage `json:"version"`
	Response Payload         `json:"response"`
}

// Payload is the spoken/rendered part of the reply.
type Payload struct {
	Text       string   `json:"text"`
	EndSession bool     `json:"end_session"`
	Buttons    []Button `json:"buttons,omitempty"`
}

// Button is a tappable suggestion shown under the reply.
type Button struct {
	Title   string   `json:"title"`
	Payload struct{} `json:"payload"`
	URL     string   `json:"url"`
	Hide    bool     `json:"hide"`
}
