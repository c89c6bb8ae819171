package domain

import "time"

// AuditLog records one API request or engine action.
type AuditLog struct {
	ID         string    `json:"id"          db:"id"`
	Action     string    `json:"action"      db:"action"`
	Resource   string    `json:"resource"    db:"resource"`
	ResourceID string    `json:"resource_id" db:"resource_id"`
	Details    string    `json:"details"     db:"details"` // JSON blob
	IP         string    `json:"ip"          db:"ip"`
	UserAgent  string    `json:"user_agent"  db:"user_agent"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Audit action constants.
const (
	AuditActionHTTPRequest = "http_request"
	AuditActionAnalyze     = "analyze"
	AuditActionResurrect   = "resurrect"
	AuditActionOpenPR      = "open_pr"
	AuditActionMCPCall     = "mcp_call"
)

// AuditActions lists every action the service records, in display order.
func AuditActions() []string {
	return []string{
		AuditActionAnalyze,
		AuditActionResurrect,
		AuditActionOpenPR,
		AuditActionMCPCall,
		AuditActionHTTPRequest,
	}
}

// IsAuditAction reports whether action is one the service records.
func IsAuditAction(action string) bool {
	for _, a := range AuditActions() {
		if a == action {
			return true
		}
	}
	return false
}
