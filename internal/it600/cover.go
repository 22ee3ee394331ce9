package it600

import (
	"fmt"
	"strconv"
)

// coverInterpreter handles roller shutters and cover actuators (sLevelS).
type coverInterpreter struct{}

func (coverInterpreter) Decode(d *Device) State {
	attrs := d.Attributes
	state := State{}

	position, hasPosition := attrFloat(attrs, "sLevelS.CurrentLevel")
	if !hasPosition {
		// Actuators without position feedback report only their relay
		// state; synthesize the two end positions.
		if on, ok := attrFloat(attrs, "sOnOffS.OnOff"); ok {
			position = 0
			if on == 1 {
				position = 100
			}
			hasPosition = true
		}
	}

	if hasPosition {
		state["position"] = int(position)
		state["is_closed"] = position == 0
		state["is_open"] = position > 0
	}

	// The first hex byte of MoveToLevel_f is the commanded target.
	if raw, ok := attrString(attrs, "sLevelS.MoveToLevel_f"); ok && len(raw) >= 2 {
		if target, err := strconv.ParseInt(raw[:2], 16, 32); err == nil {
			state["target"] = int(target)
			if hasPosition {
				state["is_opening"] = position < float64(target)
				state["is_closing"] = position > float64(target)
			}
		}
	}

	return state
}

func (coverInterpreter) Encode(d *Device, cmd Command) (*Delta, error) {
	var position float64
	switch cmd.Name {
	case CmdSetPosition:
		p, err := paramFloat(cmd, "position")
		if err != nil {
			return nil, err
		}
		position = p
	case CmdOpen:
		position = 100
	case CmdClose:
		position = 0
	default:
		return nil, unsupported(FamilyCover, cmd)
	}

	if position < 0 || position > 100 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidPosition, position)
	}

	target := int(position)
	return &Delta{
		Wire:  map[string]map[string]any{"sLevelS": {"SetMoveToLevel": fmt.Sprintf("%02xFFFF", target)}},
		Local: map[string]any{"sLevelS.MoveToLevel_f": fmt.Sprintf("%02xFFFF", target)},
	}, nil
}
