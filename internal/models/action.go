package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Verb is the kind of moderation action attached to a relayed message.
type Verb string

const (
	VerbReply Verb = "reply"
	VerbBan   Verb = "ban"
	VerbDone  Verb = "done"
)

// Action is a moderation action. Reply and Done carry AnonID, Ban carries UserID.
type Action struct {
	Verb   Verb
	AnonID string
	UserID int64
}

// ReplyAction asks the administrator for a reply to anonID.
func ReplyAction(anonID string) Action { return Action{Verb: VerbReply, AnonID: anonID} }

// BanAction bans the given user.
func BanAction(userID int64) Action { return Action{Verb: VerbBan, UserID: userID} }

// DoneAction marks anonID as processed.
func DoneAction(anonID string) Action { return Action{Verb: VerbDone, AnonID: anonID} }

// Encode serializes the action as the "{verb}_{param}" callback token.
func (a Action) Encode() string {
	if a.Verb == VerbBan {
		return string(a.Verb) + "_" + strconv.FormatInt(a.UserID, 10)
	}
	return string(a.Verb) + "_" + a.AnonID
}

// ParseAction decodes a "{verb}_{param}" callback token.
func ParseAction(data string) (Action, error) {
	verb, param, ok := strings.Cut(data, "_")
	if !ok || param == "" {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, data)
	}

	switch Verb(verb) {
	case VerbReply, VerbDone:
		return Action{Verb: Verb(verb), AnonID: param}, nil
	case VerbBan:
		userID, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, data)
		}
		return BanAction(userID), nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, data)
	}
}
