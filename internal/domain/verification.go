package domain

// VerificationHandle tracks one outstanding out-of-band code request.
// Keyed by (user_id, relation): at most one handle per (user, relation);
// a new request for the same relation overwrites the prior handle.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationHandle struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Relation  string `json:"relation" dynamodbav:"relation"`
	RequestID string `json:"request_id" dynamodbav:"request_id"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
