// Package protocol defines the JSON messages exchanged with the render boundary.
package protocol

import (
	"fmt"

	"crypto_tycoon/internal/engine"
	"crypto_tycoon/internal/event"
	"crypto_tycoon/pkg/quant"
)

// Client intent actions.
const (
	ActionSetName       = "set_name"
	ActionConfirmAvatar = "confirm_avatar"
	ActionBuy           = "buy"
	ActionSell          = "sell"
	ActionReset         = "reset"
)

// Intent is a client → server request.
// Qty is a decimal string; malformed input parses as zero and is rejected
// by the ledger like any non-positive quantity.
type Intent struct {
	Action string `json:"action"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Qty    string `json:"qty,omitempty"`
}

// ToEvent converts the intent into a session event.
func (in Intent) ToEvent() (event.Event, error) {
	switch in.Action {
	case ActionSetName:
		return &event.SetNameEvent{Name: in.Name}, nil
	case ActionConfirmAvatar:
		return &event.ConfirmAvatarEvent{}, nil
	case ActionBuy:
		return &event.BuyEvent{Symbol: in.Symbol, Qty: quant.ParseUnits(in.Qty)}, nil
	case ActionSell:
		return &event.SellEvent{Symbol: in.Symbol, Qty: quant.ParseUnits(in.Qty)}, nil
	case ActionReset:
		return &event.ResetEvent{}, nil
	default:
		return nil, fmt.Errorf("unknown action: %q", in.Action)
	}
}

// Message is a server → client frame. Exactly one of View or Error is set.
type Message struct {
	Seq    uint64       `json:"seq,omitempty"`
	Action string       `json:"action,omitempty"`
	View   *engine.View `json:"view,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// ViewMessage wraps a session view.
func ViewMessage(v engine.View) Message {
	return Message{Seq: v.Seq, View: &v}
}

// Rejected acknowledges an intent that left the session unchanged.
func Rejected(seq uint64, action string, err error) Message {
	return Message{Seq: seq, Action: action, Error: err.Error()}
}
