package domain

import "encoding/json"

// Action identifies one worker command.
type Action string

const (
	ActionLoad          Action = "load"
	ActionLoadLanguage  Action = "load-language"
	ActionInitialize    Action = "initialize"
	ActionSetParameters Action = "set-parameters"
	ActionRecognize     Action = "recognize"
	ActionDetect        Action = "detect"
	ActionTerminate     Action = "terminate"
)

// Status classifies outbound messages for a dispatched job.
type Status string

const (
	StatusResolve  Status = "resolve"
	StatusReject   Status = "reject"
	StatusProgress Status = "progress"
)

// Envelope is one inbound command. Payload stays raw until the matching
// handler decodes it into its action-specific shape.
type Envelope struct {
	WorkerID string          `json:"workerId"`
	JobID    string          `json:"jobId"`
	Action   Action          `json:"action"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Response is one outbound message correlated to an inbound envelope.
// A job emits any number of progress responses followed by exactly one
// resolve or reject.
type Response struct {
	WorkerID string `json:"workerId"`
	JobID    string `json:"jobId"`
	Action   Action `json:"action"`
	Status   Status `json:"status"`
	Data     any    `json:"data,omitempty"`
}

// ProgressUpdate is the data payload of progress responses.
type ProgressUpdate struct {
	Stage    string  `json:"status"`
	Progress float64 `json:"progress"`
}

// Orientation is the outcome of orientation and script detection.
type Orientation struct {
	ScriptID              int     `json:"script_id"`
	ScriptName            string  `json:"script_name"`
	ScriptConfidence      float64 `json:"script_confidence"`
	OrientationDegrees    int     `json:"orientation_degrees"`
	OrientationConfidence float64 `json:"orientation_confidence"`
}
