package web

import (
	"bytes"
	"encoding/json"
	"fmt"

	codewords "github.com/bcspragu/Codewords"
)

// UpdateRequest is the wire form of a partial record update. Optional fields
// are tri-state: absent leaves the stored value alone, an explicit JSON null
// clears it, and anything else sets it. Raw messages keep null and absent
// distinguishable, which a plain pointer field can't do under omitempty.
type UpdateRequest struct {
	Cards         []codewords.Card `json:"cards,omitempty"`
	CurrentTeam   codewords.Team   `json:"currentTeam,omitempty"`
	RedRemaining  *int             `json:"redRemaining,omitempty"`
	BlueRemaining *int             `json:"blueRemaining,omitempty"`
	Winner        json.RawMessage  `json:"winner,omitempty"`
	CurrentClue   json.RawMessage  `json:"currentClue,omitempty"`
	SpymasterID   json.RawMessage  `json:"spymasterId,omitempty"`
}

var jsonNull = json.RawMessage("null")

// NewUpdateRequest converts a store-level update into its wire form.
func NewUpdateRequest(u codewords.GameUpdate) (*UpdateRequest, error) {
	req := &UpdateRequest{
		Cards:         u.Cards,
		RedRemaining:  u.RedRemaining,
		BlueRemaining: u.BlueRemaining,
	}
	if u.CurrentTeam.Valid() {
		req.CurrentTeam = u.CurrentTeam
	}

	raw := func(v interface{}) (json.RawMessage, error) {
		dat, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal update field: %w", err)
		}
		return dat, nil
	}

	var err error
	switch {
	case u.ClearWinner:
		req.Winner = jsonNull
	case u.Winner != nil:
		if req.Winner, err = raw(u.Winner); err != nil {
			return nil, err
		}
	}

	switch {
	case u.ClearClue:
		req.CurrentClue = jsonNull
	case u.Clue != nil:
		if req.CurrentClue, err = raw(u.Clue); err != nil {
			return nil, err
		}
	}

	switch {
	case u.ClearSpymaster:
		req.SpymasterID = jsonNull
	case u.SpymasterID != "":
		if req.SpymasterID, err = raw(u.SpymasterID); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// ToUpdate converts the wire form back into a store-level update.
func (req *UpdateRequest) ToUpdate() (codewords.GameUpdate, error) {
	u := codewords.GameUpdate{
		Cards:         req.Cards,
		RedRemaining:  req.RedRemaining,
		BlueRemaining: req.BlueRemaining,
	}
	if req.CurrentTeam != "" {
		if !req.CurrentTeam.Valid() {
			return codewords.GameUpdate{}, fmt.Errorf("invalid team %q", req.CurrentTeam)
		}
		u.CurrentTeam = req.CurrentTeam
	}

	switch {
	case isNull(req.Winner):
		u.ClearWinner = true
	case req.Winner != nil:
		var w codewords.Team
		if err := json.Unmarshal(req.Winner, &w); err != nil {
			return codewords.GameUpdate{}, fmt.Errorf("failed to unmarshal winner: %w", err)
		}
		if !w.Valid() {
			return codewords.GameUpdate{}, fmt.Errorf("invalid winner %q", w)
		}
		u.Winner = &w
	}

	switch {
	case isNull(req.CurrentClue):
		u.ClearClue = true
	case req.CurrentClue != nil:
		var c codewords.Clue
		if err := json.Unmarshal(req.CurrentClue, &c); err != nil {
			return codewords.GameUpdate{}, fmt.Errorf("failed to unmarshal clue: %w", err)
		}
		u.Clue = &c
	}

	switch {
	case isNull(req.SpymasterID):
		u.ClearSpymaster = true
	case req.SpymasterID != nil:
		var id string
		if err := json.Unmarshal(req.SpymasterID, &id); err != nil {
			return codewords.GameUpdate{}, fmt.Errorf("failed to unmarshal spymaster ID: %w", err)
		}
		u.SpymasterID = id
	}

	return u, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}
