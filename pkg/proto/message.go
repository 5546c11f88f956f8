// Package proto defines the message protocol shared by the orchestrator and
// its capability agents: roles, message kinds, the AgentMsg envelope, and the
// per-request message history.
package proto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MsgKind string

const (
	KindRequest MsgKind = "REQUEST" // Orchestrator asks an agent to produce its partial result
	KindResult  MsgKind = "RESULT"  // Agent delivers a partial result
	KindError   MsgKind = "ERROR"   // Agent reports failure or timeout
	KindFinal   MsgKind = "FINAL"   // Orchestrator publishes the aggregated analysis
)

// Common payload and metadata keys used in agent messages
const (
	KeyRequestID      = "request_id"
	KeyProperty       = "property"
	KeyInvestorCtx    = "investor_context"
	KeyPrediction     = "prediction"
	KeyDocuments      = "documents"
	KeyRiskAssessment = "risk_assessment"
	KeyNarrative      = "narrative"
	KeyAnalysis       = "analysis"
	KeyError          = "error"
	KeyOutcome        = "outcome"

	// Metadata keys
	MetaAttempt  = "attempt"
	MetaDuration = "duration_ms"
	MetaFallback = "fallback"
	MetaState    = "state"
)

// AgentMsg is the immutable envelope exchanged between the orchestrator and
// agents. Callers must not mutate a message after appending it to a History;
// use Clone to derive modified copies.
type AgentMsg struct {
	ID          string            `json:"id"`
	Kind        MsgKind           `json:"kind"`
	FromRole    Role              `json:"from_role"`
	ToRole      Role              `json:"to_role"`
	Timestamp   time.Time         `json:"timestamp"`
	Payload     map[string]any    `json:"payload"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ParentMsgID string            `json:"parent_msg_id,omitempty"`
}

func NewAgentMsg(kind MsgKind, from, to Role) *AgentMsg {
	return &AgentMsg{
		ID:        uuid.NewString(),
		Kind:      kind,
		FromRole:  from,
		ToRole:    to,
		Timestamp: time.Now().UTC(),
		Payload:   make(map[string]any),
		Metadata:  make(map[string]string),
	}
}

func (msg *AgentMsg) ToJSON() ([]byte, error) {
	return json.Marshal(msg)
}

func FromJSON(data []byte) (*AgentMsg, error) {
	var msg AgentMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AgentMsg: %w", err)
	}
	return &msg, nil
}

func (msg *AgentMsg) SetPayload(key string, value any) {
	if msg.Payload == nil {
		msg.Payload = make(map[string]any)
	}
	msg.Payload[key] = value
}

func (msg *AgentMsg) GetPayload(key string) (any, bool) {
	if msg.Payload == nil {
		return nil, false
	}
	val, exists := msg.Payload[key]
	return val, exists
}

func (msg *AgentMsg) SetMetadata(key, value string) {
	if msg.Metadata == nil {
		msg.Metadata = make(map[string]string)
	}
	msg.Metadata[key] = value
}

func (msg *AgentMsg) GetMetadata(key string) (string, bool) {
	if msg.Metadata == nil {
		return "", false
	}
	val, exists := msg.Metadata[key]
	return val, exists
}

// Clone returns a deep copy with a fresh identity-independent payload and
// metadata, so the copy can be mutated without affecting the original.
func (msg *AgentMsg) Clone() *AgentMsg {
	clone := &AgentMsg{
		ID:          msg.ID,
		Kind:        msg.Kind,
		FromRole:    msg.FromRole,
		ToRole:      msg.ToRole,
		Timestamp:   msg.Timestamp,
		ParentMsgID: msg.ParentMsgID,
	}

	if msg.Payload != nil {
		clone.Payload = make(map[string]any, len(msg.Payload))
		for k, v := range msg.Payload {
			clone.Payload[k] = v
		}
	}

	if msg.Metadata != nil {
		clone.Metadata = make(map[string]string, len(msg.Metadata))
		for k, v := range msg.Metadata {
			clone.Metadata[k] = v
		}
	}

	return clone
}

func (msg *AgentMsg) Validate() error {
	if msg.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if msg.Kind == "" {
		return fmt.Errorf("message kind is required")
	}
	if _, valid := ValidateMsgKind(string(msg.Kind)); !valid {
		return fmt.Errorf("invalid message kind: %s", msg.Kind)
	}
	if _, valid := ValidateRole(string(msg.FromRole)); !valid {
		return fmt.Errorf("invalid from_role: %s", msg.FromRole)
	}
	if _, valid := ValidateRole(string(msg.ToRole)); !valid {
		return fmt.Errorf("invalid to_role: %s", msg.ToRole)
	}
	if msg.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// ValidateMsgKind validates if a string is a valid message kind
func ValidateMsgKind(kind string) (MsgKind, bool) {
	switch MsgKind(kind) {
	case KindRequest, KindResult, KindError, KindFinal:
		return MsgKind(kind), true
	default:
		return "", false
	}
}

// String returns the string representation of MsgKind
func (k MsgKind) String() string {
	return string(k)
}
