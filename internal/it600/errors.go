package it600

import "errors"

// Domain errors for gateway communication and command handling.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, it600.ErrGatewayUnreachable) {
//	    // schedule a reconnect
//	}
var (
	// ErrConnectionFailed is returned when the gateway host cannot be
	// reached at all during the initial handshake.
	ErrConnectionFailed = errors.New("it600: connection failed")

	// ErrAuthenticationFailed is returned when the gateway host is
	// reachable but rejects the encrypted handshake, which means the
	// configured EUID is wrong.
	ErrAuthenticationFailed = errors.New("it600: authentication failed")

	// ErrGatewayUnreachable is returned when an established session loses
	// contact with the gateway (timeout, refused connection, DNS failure).
	ErrGatewayUnreachable = errors.New("it600: gateway unreachable")

	// ErrMalformedResponse is returned when a gateway response cannot be
	// decrypted or parsed.
	ErrMalformedResponse = errors.New("it600: malformed response")

	// ErrCommandRejected is returned when the gateway answers a request
	// with a non-success status.
	ErrCommandRejected = errors.New("it600: command rejected by gateway")

	// ErrDeviceNotFound is returned when a device ID does not exist in
	// the model.
	ErrDeviceNotFound = errors.New("it600: device not found")

	// ErrUnsupportedCommand is returned when a command is not part of the
	// target device family's capability set.
	ErrUnsupportedCommand = errors.New("it600: unsupported command")

	// ErrInvalidSetpointOrder is returned when a fan-coil setpoint pair
	// has the heating setpoint at or above the cooling setpoint.
	ErrInvalidSetpointOrder = errors.New("it600: heating setpoint must be below cooling setpoint")

	// ErrInvalidPosition is returned when a cover position is outside the
	// 0-100 range.
	ErrInvalidPosition = errors.New("it600: position must be between 0 and 100")
)
