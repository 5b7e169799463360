package model

import (
	"encoding/json"
	"strings"
)

// Confirmation is the client's answer to the save prompt.
type Confirmation int

const (
	ConfirmationMalformed Confirmation = iota
	ConfirmationConfirm
	ConfirmationDecline
)

// String returns the confirmation name.
func (c Confirmation) String() string {
	switch c {
	case ConfirmationConfirm:
		return "confirm"
	case ConfirmationDecline:
		return "decline"
	default:
		return "malformed"
	}
}

// confirmMessage is the structured form of a confirmation.
type confirmMessage struct {
	Confirm *bool `json:"confirm"`
}

// ParseConfirmation reads a confirmation message.
// It accepts "yes" or "no" in any case with surrounding space,
// or a JSON object {"confirm": bool}. Anything else is malformed.
func ParseConfirmation(msg []byte) Confirmation {
	text := strings.ToLower(strings.TrimSpace(string(msg)))
	switch text {
	case "yes":
		return ConfirmationConfirm
	case "no":
		return ConfirmationDecline
	}

	if !strings.HasPrefix(text, "{") {
		return ConfirmationMalformed
	}

	var cm confirmMessage
	if err := json.Unmarshal(msg, &cm); err != nil || cm.Confirm == nil {
		return ConfirmationMalformed
	}
	if *cm.Confirm {
		return ConfirmationConfirm
	}
	return ConfirmationDecline
}
