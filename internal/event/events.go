package event

import (
	"encoding/json"
	"fmt"

	"crypto_tycoon/pkg/quant"
)

// Type defines the type of event.
type Type uint16

const (
	EvTick Type = iota + 1
	EvSetName
	EvConfirmAvatar
	EvBuy
	EvSell
	EvReset
)

func (t Type) String() string {
	switch t {
	case EvTick:
		return "tick"
	case EvSetName:
		return "set_name"
	case EvConfirmAvatar:
		return "confirm_avatar"
	case EvBuy:
		return "buy"
	case EvSell:
		return "sell"
	case EvReset:
		return "reset"
	default:
		return fmt.Sprintf("type(%d)", uint16(t))
	}
}

// Event is the interface for all session events.
type Event interface {
	GetSeq() uint64
	GetTs() quant.TimeStamp
	GetType() Type
	// Stamp assigns the sequence number and timestamp. Only the session calls it.
	Stamp(seq uint64, ts quant.TimeStamp)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  quant.TimeStamp `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64         { return e.Seq }
func (e BaseEvent) GetTs() quant.TimeStamp { return e.Ts }

func (e *BaseEvent) Stamp(seq uint64, ts quant.TimeStamp) {
	e.Seq = seq
	e.Ts = ts
}

// TickEvent advances the market by one step.
type TickEvent struct {
	BaseEvent
}

func (e TickEvent) GetType() Type { return EvTick }

// SetNameEvent submits the player name on the start screen.
type SetNameEvent struct {
	BaseEvent
	Name string `json:"name"`
}

func (e SetNameEvent) GetType() Type { return EvSetName }

// ConfirmAvatarEvent enters the market from the avatar screen.
type ConfirmAvatarEvent struct {
	BaseEvent
}

func (e ConfirmAvatarEvent) GetType() Type { return EvConfirmAvatar }

// BuyEvent spends cash on Qty units of Symbol at the current price.
type BuyEvent struct {
	BaseEvent
	Symbol string      `json:"symbol"`
	Qty    quant.Units `json:"qty"`
}

func (e BuyEvent) GetType() Type { return EvBuy }

// SellEvent sells up to Qty owned units of Symbol at the current price.
type SellEvent struct {
	BaseEvent
	Symbol string      `json:"symbol"`
	Qty    quant.Units `json:"qty"`
}

func (e SellEvent) GetType() Type { return EvSell }

// ResetEvent replaces the account with a fresh one owned by PlayerID.
// The id travels with the event so replay builds the same account.
type ResetEvent struct {
	BaseEvent
	PlayerID string `json:"player_id"`
}

func (e ResetEvent) GetType() Type { return EvReset }

// New returns an empty event of the given type.
func New(typ Type) (Event, error) {
	switch typ {
	case EvTick:
		return &TickEvent{}, nil
	case EvSetName:
		return &SetNameEvent{}, nil
	case EvConfirmAvatar:
		return &ConfirmAvatarEvent{}, nil
	case EvBuy:
		return &BuyEvent{}, nil
	case EvSell:
		return &SellEvent{}, nil
	case EvReset:
		return &ResetEvent{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %d", uint16(typ))
	}
}

// Decode rebuilds a typed event from its journal payload.
func Decode(typ Type, payload []byte) (Event, error) {
	ev, err := New(typ)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", typ, err)
	}
	return ev, nil
}
