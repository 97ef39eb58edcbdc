// File: internal/control/types.go
package control

import (
	"context"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// CommandRequest is the body of POST /api/v1/command.
type CommandRequest struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params"`
}

// CommandResponse is the envelope of every command reply.
type CommandResponse struct {
	Status  string      `json:"status"` // "success", "error", "accepted"
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// FillParams are the parameters of the "fill" command. With Wait the reply
// carries the run summary; otherwise the run is started and 202 is returned.
type FillParams struct {
	OnlyUnanswered bool `json:"only_unanswered"`
	Wait           bool `json:"wait"`
}

// FormData is the reply of "form_data" and "analyze".
type FormData struct {
	Snapshot   *schemas.FormSnapshot `json:"snapshot"`
	Count      int                   `json:"count"`
	Unanswered int                   `json:"unanswered"`
	Busy       bool                  `json:"busy"`
	LastRun    *schemas.RunSummary   `json:"lastRun,omitempty"`
}

// MessageType tags frames on the progress stream.
type MessageType string

const (
	MsgTypeProgress MessageType = "progress"
	MsgTypeHello    MessageType = "hello"
)

// WSMessage is one frame on /ws/v1/progress.
type WSMessage struct {
	Type      MessageType            `json:"type"`
	Data      *schemas.ProgressEvent `json:"data,omitempty"`
	State     *FormData              `json:"state,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// Runner is the orchestrator surface the control API drives.
type Runner interface {
	Analyze(ctx context.Context) (*schemas.FormSnapshot, error)
	Fill(ctx context.Context, onlyUnanswered bool) (schemas.RunSummary, error)
	Watch(ctx context.Context, mutations <-chan struct{}) error
	Subscribe() (<-chan schemas.ProgressEvent, func())
	LastSnapshot() *schemas.FormSnapshot
	LastSummary() *schemas.RunSummary
	Busy() bool
}
