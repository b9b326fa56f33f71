// Package callback encodes and parses inline button payloads of the form action[:argument].
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Action string

const (
	MainMenu         Action = "main_menu"
	CreateBox        Action = "create_box"
	MyBoxes          Action = "my_boxes"
	SelectBox        Action = "select_box"
	FillWishes       Action = "fill_wishes"
	FillGifts        Action = "fill_gifts"
	ListGifts        Action = "list_gifts"
	DeleteGift       Action = "delete_gift"
	ShuffleBox       Action = "shuffle_box"
	DeleteBox        Action = "delete_box"
	DeleteBoxConfirm Action = "delete_box_confirm"
	ReceiverCard     Action = "receiver_card"
	UserProfile      Action = "user_profile"
	UserGiftWishes   Action = "user_gift_wishes"
	SendSantaMessage Action = "send_santa_message"
	SendToSanta      Action = "send_to_santa"
	GiftIsExact      Action = "gift_is_exact"
	AddAnotherGift   Action = "add_another_gift"
	ExitGiftFilling  Action = "exit_gift_filling"
)

// Shape is the kind of argument an action carries.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeID
	ShapeFlag
)

var shapes = map[Action]Shape{
	MainMenu:         ShapeNone,
	CreateBox:        ShapeNone,
	MyBoxes:          ShapeNone,
	SelectBox:        ShapeID,
	FillWishes:       ShapeID,
	FillGifts:        ShapeID,
	ListGifts:        ShapeID,
	DeleteGift:       ShapeID,
	ShuffleBox:       ShapeID,
	DeleteBox:        ShapeID,
	DeleteBoxConfirm: ShapeID,
	ReceiverCard:     ShapeID,
	UserProfile:      ShapeID,
	UserGiftWishes:   ShapeID,
	SendSantaMessage: ShapeID,
	SendToSanta:      ShapeID,
	GiftIsExact:      ShapeFlag,
	AddAnotherGift:   ShapeNone,
	ExitGiftFilling:  ShapeNone,
}

var (
	ErrUnknownAction = errors.New("unknown button action")
	ErrMalformed     = errors.New("malformed button argument")
)

// Token is a parsed button payload. ID is set for id actions, Flag for flag actions.
type Token struct {
	Action Action
	ID     int64
	Flag   bool
}

// ShapeOf reports the declared argument shape of an action.
func ShapeOf(action Action) (Shape, bool) {
	shape, ok := shapes[action]
	return shape, ok
}

func Parse(data string) (Token, error) {
	raw := strings.TrimSpace(data)
	name, arg, hasArg := strings.Cut(raw, ":")
	action := Action(name)
	shape, ok := shapes[action]
	if !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	switch shape {
	case ShapeNone:
		if hasArg {
			return Token{}, fmt.Errorf("%w: %s takes no argument", ErrMalformed, action)
		}
		return Token{Action: action}, nil
	case ShapeID:
		id, err := strconv.ParseInt(arg, 10, 64)
		if !hasArg || err != nil || id <= 0 {
			return Token{}, fmt.Errorf("%w: %s needs a positive id, got %q", ErrMalformed, action, arg)
		}
		return Token{Action: action, ID: id}, nil
	default:
		switch arg {
		case "1":
			return Token{Action: action, Flag: true}, nil
		case "0":
			return Token{Action: action, Flag: false}, nil
		}
		return Token{Action: action}, fmt.Errorf("%w: %s needs 0 or 1, got %q", ErrMalformed, action, arg)
	}
}

func (t Token) String() string {
	switch shapes[t.Action] {
	case ShapeID:
		return string(t.Action) + ":" + strconv.FormatInt(t.ID, 10)
	case ShapeFlag:
		if t.Flag {
			return string(t.Action) + ":1"
		}
		return string(t.Action) + ":0"
	default:
		return string(t.Action)
	}
}

func Plain(action Action) string {
	return Token{Action: action}.String()
}

func WithID(action Action, id int64) string {
	return Token{Action: action, ID: id}.String()
}

func WithFlag(action Action, flag bool) string {
	return Token{Action: action, Flag: flag}.String()
}
