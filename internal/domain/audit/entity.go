package audit

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionDelete  Action = "delete"
	ActionUpdate  Action = "update"
)

// Entry is what workflows hand to a Sink. Old and new values are encoded to
// JSON by the sink, not by the caller.
type Entry struct {
	TableName string
	RecordID  string
	Action    Action
	ActorID   string
	OldValues any
	NewValues any
}

// Log is the persisted, append-only form of an Entry.
type Log struct {
	ID        string
	TableName string
	RecordID  string
	Action    Action
	OldValues json.RawMessage
	NewValues json.RawMessage
	ActorID   string
	CreatedAt time.Time
}
