package proto

import (
	"fmt"
	"strings"
)

// Role identifies a participant in an analysis run.
type Role string

const (
	RoleOrchestrator Role = "orchestrator"
	RoleValuation    Role = "valuation"
	RoleMarketIntel  Role = "market_intelligence"
	RoleRisk         Role = "risk_compliance"
	RoleNarrative    Role = "narrative"
)

// CapabilityRoles lists the dispatchable capability agents, in dispatch order.
// The narrative agent is excluded: it runs after collection, under retry.
func CapabilityRoles() []Role {
	return []Role{RoleValuation, RoleMarketIntel, RoleRisk}
}

// ValidateRole validates if a string is a valid role
func ValidateRole(role string) (Role, bool) {
	switch Role(role) {
	case RoleOrchestrator, RoleValuation, RoleMarketIntel, RoleRisk, RoleNarrative:
		return Role(role), true
	default:
		return "", false
	}
}

// ParseRole parses a string into a Role with validation
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	switch normalized {
	case "orchestrator":
		return RoleOrchestrator, nil
	case "valuation":
		return RoleValuation, nil
	case "market_intelligence", "market":
		return RoleMarketIntel, nil
	case "risk_compliance", "risk":
		return RoleRisk, nil
	case "narrative":
		return RoleNarrative, nil
	default:
		if role, valid := ValidateRole(s); valid {
			return role, nil
		}
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsCapability reports whether the role is one of the three dispatchable
// capability agents.
func (r Role) IsCapability() bool {
	switch r {
	case RoleValuation, RoleMarketIntel, RoleRisk:
		return true
	default:
		return false
	}
}
