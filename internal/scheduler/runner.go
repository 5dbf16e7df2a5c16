// Package scheduler provides the persistent one-shot job runner backing
// the draw rounds. Payloads are typed per job kind and dispatched
// through a registry of handlers; stringly-typed job data never crosses
// a package boundary.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Runner schedules one-shot jobs for future execution. Execution is
// at-least-once: a job may be dispatched again after a crash/restart,
// so handlers must be safe to re-run.
type Runner interface {
	ScheduleAt(ctx context.Context, at time.Time, kind string, payload any) error
	ScheduleNow(ctx context.Context, kind string, payload any) error
}

// HandlerFunc executes one job of a registered kind. The payload is the
// JSON encoding of the value passed to ScheduleAt/ScheduleNow.
type HandlerFunc func(ctx context.Context, payload []byte) error

func encodePayload(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job payload: %w", err)
	}
	return data, nil
}
