package proto

import (
	"testing"
	"time"
)

func TestNewAgentMsg(t *testing.T) {
	msg := NewAgentMsg(KindRequest, RoleOrchestrator, RoleValuation)

	if msg.Kind != KindRequest {
		t.Errorf("Expected kind REQUEST, got %s", msg.Kind)
	}
	if msg.FromRole != RoleOrchestrator {
		t.Errorf("Expected from_role orchestrator, got %s", msg.FromRole)
	}
	if msg.ToRole != RoleValuation {
		t.Errorf("Expected to_role valuation, got %s", msg.ToRole)
	}
	if msg.ID == "" {
		t.Error("Expected non-empty ID")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected non-zero timestamp")
	}
	if msg.Payload == nil {
		t.Error("Expected initialized payload map")
	}
	if msg.Metadata == nil {
		t.Error("Expected initialized metadata map")
	}
}

func TestAgentMsg_ToJSON_FromJSON(t *testing.T) {
	original := NewAgentMsg(KindResult, RoleValuation, RoleOrchestrator)
	original.SetPayload(KeyRequestID, "req-001")
	original.SetPayload("confidence", 0.85)
	original.SetMetadata(MetaDuration, "142")
	original.ParentMsgID = "parent-123"

	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("Failed to convert to JSON: %v", err)
	}

	restored, err := FromJSON(data)
	if err != nil {
		t.Fatalf("Failed to restore from JSON: %v", err)
	}

	if restored.ID != original.ID {
		t.Errorf("ID mismatch: %s != %s", restored.ID, original.ID)
	}
	if restored.Kind != original.Kind {
		t.Errorf("Kind mismatch: %s != %s", restored.Kind, original.Kind)
	}
	if restored.ParentMsgID != "parent-123" {
		t.Errorf("ParentMsgID mismatch: %s", restored.ParentMsgID)
	}
	if v, ok := restored.GetPayload(KeyRequestID); !ok || v != "req-001" {
		t.Errorf("Payload request_id mismatch: %v", v)
	}
	if v, ok := restored.GetMetadata(MetaDuration); !ok || v != "142" {
		t.Errorf("Metadata duration mismatch: %v", v)
	}
}

func TestAgentMsg_Clone(t *testing.T) {
	original := NewAgentMsg(KindRequest, RoleOrchestrator, RoleRisk)
	original.SetPayload("city", "Mumbai")
	original.SetMetadata("source", "test")

	clone := original.Clone()

	clone.SetPayload("city", "Pune")
	clone.SetMetadata("source", "mutated")

	if v, _ := original.GetPayload("city"); v != "Mumbai" {
		t.Errorf("Clone mutation leaked into original payload: %v", v)
	}
	if v, _ := original.GetMetadata("source"); v != "test" {
		t.Errorf("Clone mutation leaked into original metadata: %v", v)
	}
	if clone.ID != original.ID {
		t.Error("Clone should preserve ID")
	}
}

func TestAgentMsg_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AgentMsg)
		wantErr bool
	}{
		{"valid", func(*AgentMsg) {}, false},
		{"missing id", func(m *AgentMsg) { m.ID = "" }, true},
		{"missing kind", func(m *AgentMsg) { m.Kind = "" }, true},
		{"bad kind", func(m *AgentMsg) { m.Kind = "GOSSIP" }, true},
		{"bad from role", func(m *AgentMsg) { m.FromRole = "nobody" }, true},
		{"bad to role", func(m *AgentMsg) { m.ToRole = "nobody" }, true},
		{"zero timestamp", func(m *AgentMsg) { m.Timestamp = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewAgentMsg(KindRequest, RoleOrchestrator, RoleValuation)
			tt.mutate(msg)
			err := msg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateMsgKind(t *testing.T) {
	for _, kind := range []string{"REQUEST", "RESULT", "ERROR", "FINAL"} {
		if _, ok := ValidateMsgKind(kind); !ok {
			t.Errorf("Expected %s to be valid", kind)
		}
	}
	if _, ok := ValidateMsgKind("request"); ok {
		t.Error("Kinds are case sensitive, lowercase should be invalid")
	}
}
