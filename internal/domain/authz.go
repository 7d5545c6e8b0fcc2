package domain

// DecisionReason classifies why access was granted or denied.
type DecisionReason string

const (
	ReasonGranted               DecisionReason = "granted"
	ReasonUnauthenticated       DecisionReason = "unauthenticated"
	ReasonTokenExpired          DecisionReason = "token_expired"
	ReasonTokenInvalidSignature DecisionReason = "token_invalid_signature"
	ReasonTokenMalformed        DecisionReason = "token_malformed"
	ReasonForbidden             DecisionReason = "forbidden"
	ReasonNotFound              DecisionReason = "not_found"
)

// AuthorizationDecision is the structured outcome of a resolve call.
// Callers map it to a transport response; this core never touches
// status codes. SubjectID is set whenever the token verified, even
// when access was denied, so audit logging can attribute the attempt.
type AuthorizationDecision struct {
	Granted   bool
	Reason    DecisionReason
	SubjectID string
	Message   string
}
