package inbound

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/goliatone/go-interactions/core"
)

type interactionPayload struct {
	ID            *string         `json:"id"`
	ApplicationID *string         `json:"application_id"`
	Type          *int            `json:"type"`
	Token         *string         `json:"token"`
	Data          json.RawMessage `json:"data"`
}

// DecodeInteraction parses the routing fields of an interaction payload.
// id, application_id, token and type are required; other members are ignored.
// Callers must verify the delivery first.
func DecodeInteraction(body []byte) (core.Interaction, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return core.Interaction{}, decodeError(nil, "inbound: interaction body is empty", "")
	}
	var payload interactionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return core.Interaction{}, decodeError(err, "inbound: interaction field has the wrong type", typeErr.Field)
		}
		return core.Interaction{}, decodeError(err, "inbound: interaction body is not valid json", "")
	}

	switch {
	case payload.ID == nil:
		return core.Interaction{}, missingField("id")
	case payload.ApplicationID == nil:
		return core.Interaction{}, missingField("application_id")
	case payload.Type == nil:
		return core.Interaction{}, missingField("type")
	case payload.Token == nil:
		return core.Interaction{}, missingField("token")
	}

	interaction := core.Interaction{
		ID:            *payload.ID,
		ApplicationID: *payload.ApplicationID,
		Type:          core.InteractionType(*payload.Type),
		Token:         *payload.Token,
	}
	if len(payload.Data) > 0 && !bytes.Equal(payload.Data, []byte("null")) {
		var data core.CommandData
		// command data is advisory; a shape we do not understand is dropped
		if err := json.Unmarshal(payload.Data, &data); err == nil {
			interaction.Data = &data
		}
	}
	return interaction, nil
}

func missingField(field string) error {
	return decodeError(nil, "inbound: interaction field "+field+" is required", field)
}
