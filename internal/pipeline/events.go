package pipeline

import (
	"fmt"
	"time"
)

// EventKind identifies the shape of an Event.
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventFileDone  EventKind = "file_done"
	EventError     EventKind = "error"
	EventBatchDone EventKind = "batch_done"
)

// Status is a locale-independent per-file status key.
type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusPreparing   Status = "preparing"
	StatusCompressing Status = "compressing"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
	StatusStopping    Status = "stopping"
)

// Event is one notification from a run. Fields not relevant to Kind are
// zero. FileIndex is -1 on batch_done.
type Event struct {
	RunID     string    `json:"run_id"`
	Seq       int64     `json:"seq"`
	Kind      EventKind `json:"kind"`
	Time      time.Time `json:"time"`
	FileIndex int       `json:"file_index"`

	// progress
	Percent int    `json:"percent"`
	Status  Status `json:"status,omitempty"`

	// file_done
	Success     bool   `json:"success,omitempty"`
	OutputBytes int64  `json:"output_bytes,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
	Reason      string `json:"reason,omitempty"`

	// error
	Stage   Stage  `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`

	// batch_done
	Result *BatchResult `json:"result,omitempty"`
}

// Stage names the step of per-file processing where an error occurred.
type Stage string

const (
	StagePreflight Stage = "preflight"
	StageMkdir     Stage = "mkdir"
	StageLaunch    Stage = "launch"
	StageEncode    Stage = "encode"
	StageVerify    Stage = "verify"
)

// FileError is a per-file failure. It never escapes the batch loop; it is
// reported through file_done reasons and error events.
type FileError struct {
	Index int
	Path  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
