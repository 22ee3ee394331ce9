// Package it600 implements the client protocol for the Salus iT600
// local gateway: the AES-encrypted session, full-snapshot device
// discovery, a poll-and-diff state model, per-family state
// interpretation, and optimistic command dispatch.
//
// Architecture:
//
//	Gateway    - encrypted HTTP session (connect, readall, write)
//	Model      - in-memory device registry with sparse diff merge
//	Poller     - periodic snapshot loop, change and connectivity fan-out
//	Interpreter- per-family decode (wire attrs to state) and encode
//	             (command to wire delta)
//	Dispatcher - command validation, optimistic apply, rollback on
//	             write failure
//
// The gateway speaks a single encrypted JSON exchange shape; everything
// device-specific lives in the family interpreters.
package it600
