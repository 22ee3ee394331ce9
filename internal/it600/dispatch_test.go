package it600

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func newDispatchFixture(t *testing.T) (*fakeGateway, *Model, *Dispatcher) {
	t.Helper()

	fg := newFakeGateway(t, testEUID)
	fg.respond = func([]byte) []byte { return []byte(testReadallResponse) }
	gw := newTestGateway(t, fg, testEUID)
	t.Cleanup(func() { gw.Close() })

	snap, err := gw.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	model := NewModel()
	model.Register(snap)

	fg.respond = func([]byte) []byte { return []byte(`{"status":"success","id":[]}`) }
	return fg, model, NewDispatcher(gw, model)
}

func TestDispatcher_Send(t *testing.T) {
	fg, model, disp := newDispatchFixture(t)

	err := disp.Send(context.Background(), "001e5e0902abcdef", Command{
		Name:   CmdSetTemperature,
		Params: map[string]any{"temperature": 21.0},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	// The write reached the gateway with the device's routing envelope.
	var sent map[string]any
	if err := json.Unmarshal(fg.lastRequest, &sent); err != nil {
		t.Fatalf("decoding write request: %v", err)
	}
	if sent["requestAttr"] != "write" {
		t.Errorf("requestAttr = %v", sent["requestAttr"])
	}

	// The model reflects the commanded value before any poll.
	d, _ := model.Get("001e5e0902abcdef")
	if got := d.Attributes["sIT600TH.HeatingSetpoint_x100"]; got != float64(2100) {
		t.Errorf("optimistic setpoint = %v, want 2100", got)
	}
}

func TestDispatcher_SendRollsBackOnWriteFailure(t *testing.T) {
	fg, model, disp := newDispatchFixture(t)
	fg.respond = func([]byte) []byte { return []byte(`{"status":"error"}`) }

	err := disp.Send(context.Background(), "001e5e0902abcdef", Command{
		Name:   CmdSetTemperature,
		Params: map[string]any{"temperature": 25.0},
	})
	if !errors.Is(err, ErrCommandRejected) {
		t.Fatalf("Send() error = %v, want ErrCommandRejected", err)
	}

	d, _ := model.Get("001e5e0902abcdef")
	if got := d.Attributes["sIT600TH.HeatingSetpoint_x100"]; got != float64(2000) {
		t.Errorf("setpoint after rollback = %v, want 2000", got)
	}
}

func TestDispatcher_SendUnknownDevice(t *testing.T) {
	_, _, disp := newDispatchFixture(t)

	err := disp.Send(context.Background(), "missing", Command{Name: CmdTurnOn})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Send() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestDispatcher_SendInvalidCommandNeverWrites(t *testing.T) {
	fg, model, disp := newDispatchFixture(t)
	before := string(fg.lastRequest)

	err := disp.Send(context.Background(), "001e5e0902abcdef", Command{
		Name:   CmdSetPosition,
		Params: map[string]any{"position": 50.0},
	})
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("Send() error = %v, want ErrUnsupportedCommand", err)
	}
	if string(fg.lastRequest) != before {
		t.Error("rejected command reached the gateway")
	}

	d, _ := model.Get("001e5e0902abcdef")
	if got := d.Attributes["sIT600TH.HeatingSetpoint_x100"]; got != float64(2000) {
		t.Errorf("model disturbed by rejected command: %v", got)
	}
}
