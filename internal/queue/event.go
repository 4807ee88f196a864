// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// AuditQueueName is the durable queue carrying moderation and purchase
// audit events.
const AuditQueueName = "moderation.audit"

// Audit actions.
const (
	ActionReviewBan    = "review_ban"
	ActionReviewUnban  = "review_unban"
	ActionPermanentBan = "permanent_ban"
	ActionUnban        = "unban"
	ActionTokenPenalty = "token_penalty"
	ActionReportReview = "report_review"
	ActionPurchase     = "purchase"
)

// AuditEvent is published when a moderation action or purchase completes.
// It carries enough information for downstream consumers to log or alert
// without reading the flat-file stores.
type AuditEvent struct {
	Action      string `json:"action"`
	ActorEmail  string `json:"actor_email"` // admin or user who triggered the action
	TargetEmail string `json:"target_email,omitempty"`
	Movie       string `json:"movie,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
