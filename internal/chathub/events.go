package chathub

import (
	"encoding/json"
	"errors"

	"messenger/backend/internal/models"
)

// Reasons an inbound frame is dropped. None of them is reported to the sender.
var (
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrUnknownEvent    = errors.New("unknown event")
	ErrStaleConnection = errors.New("frame from a replaced connection")
	ErrSelfTarget      = errors.New("offer targets the sender")
	ErrPeerOffline     = errors.New("peer has no live connection")
	ErrNoPeer          = errors.New("no active call")
	ErrSendBufferFull  = errors.New("peer send buffer full")
)

// Signal is one of Offer, Answer, Ice, Hangup.
type Signal interface {
	Event() string
}

type Offer struct {
	TargetUserID string
	IsVideo      bool
	fields       map[string]json.RawMessage
}

type Answer struct {
	fields map[string]json.RawMessage
}

type Ice struct {
	payload json.RawMessage
}

type Hangup struct {
	fields map[string]json.RawMessage
}

func (Offer) Event() string  { return models.EventCallOffer }
func (Answer) Event() string { return models.EventCallAnswer }
func (Ice) Event() string    { return models.EventCallIce }
func (Hangup) Event() string { return models.EventCallHangup }

// ParseFrame decodes a client frame into its Signal variant.
func ParseFrame(data []byte) (Signal, error) {
	var f models.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, ErrMalformedFrame
	}
	if f.Event == "" {
		return nil, ErrMalformedFrame
	}

	switch f.Event {
	case models.EventCallOffer:
		fields, err := objectFields(f.Payload)
		if err != nil {
			return nil, err
		}
		var head struct {
			TargetUserID string `json:"targetUserId"`
			IsVideo      bool   `json:"isVideo"`
		}
		if err := json.Unmarshal(f.Payload, &head); err != nil || head.TargetUserID == "" {
			return nil, ErrMalformedFrame
		}
		return Offer{TargetUserID: head.TargetUserID, IsVideo: head.IsVideo, fields: fields}, nil

	case models.EventCallAnswer:
		fields, err := objectFields(f.Payload)
		if err != nil {
			return nil, err
		}
		return Answer{fields: fields}, nil

	case models.EventCallIce:
		payload := f.Payload
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		return Ice{payload: payload}, nil

	case models.EventCallHangup:
		fields, err := objectFields(f.Payload)
		if err != nil {
			return nil, err
		}
		return Hangup{fields: fields}, nil

	default:
		return nil, ErrUnknownEvent
	}
}

// objectFields accepts a JSON object or an absent payload.
func objectFields(payload json.RawMessage) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if len(payload) == 0 || string(payload) == "null" {
		return fields, nil
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, ErrMalformedFrame
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	return fields, nil
}

// withSender copies fields and stamps fromUserId.
func withSender(fields map[string]json.RawMessage, from string) json.RawMessage {
	out := make(map[string]json.RawMessage, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	id, _ := json.Marshal(from)
	out["fromUserId"] = id
	b, _ := json.Marshal(out)
	return b
}

func hangupFrame(from string) models.Frame {
	return models.Frame{Event: models.EventCallHangup, Payload: withSender(nil, from)}
}
