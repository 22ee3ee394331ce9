package it600

import (
	"context"
	"fmt"
)

// Dispatcher turns high-level commands into encrypted gateway writes.
//
// Commands apply optimistically: the expected attribute values land in
// the Model before the write goes out, so surfaces reflect the change
// immediately instead of waiting a full poll interval. A failed write
// rolls the Model back to its prior state.
type Dispatcher struct {
	gateway *Gateway
	model   *Model
	logger  Logger
}

// NewDispatcher creates a dispatcher over the given session and model.
func NewDispatcher(gateway *Gateway, model *Model) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		model:   model,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Send validates, applies, and transmits one command for one device.
//
// Returns ErrDeviceNotFound for unknown devices, ErrUnsupportedCommand
// when the device's family cannot handle the command, and the encode
// error unchanged when parameters are invalid. Validation failures
// never reach the network.
func (d *Dispatcher) Send(ctx context.Context, deviceID string, cmd Command) error {
	dev, err := d.model.Get(deviceID)
	if err != nil {
		return err
	}

	interp, ok := interpreterFor(dev.Family)
	if !ok {
		return fmt.Errorf("%w: family %q has no interpreter", ErrUnsupportedCommand, dev.Family)
	}

	delta, err := interp.Encode(dev, cmd)
	if err != nil {
		return err
	}

	var rollback *Rollback
	if len(delta.Local) > 0 {
		rollback, err = d.model.ApplyDelta(deviceID, delta.Local)
		if err != nil {
			return err
		}
	}

	if err := d.gateway.Write(ctx, dev.WireData(), delta.Wire); err != nil {
		if rollback != nil {
			d.model.Restore(rollback)
		}
		d.logger.Error("command write failed",
			"device_id", deviceID,
			"command", cmd.Name,
			"error", err,
		)
		return err
	}

	d.logger.Info("command dispatched", "device_id", deviceID, "command", cmd.Name)
	return nil
}
