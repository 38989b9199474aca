package domain

// GenerationKind tags the outcome of one generative-backend call. The client
// decides the kind from transport and payload shape; callers switch on it
// instead of sniffing substrings out of the answer text.
type GenerationKind string

const (
	GenerationOK GenerationKind = "ok"

	FailureConfig      GenerationKind = "config"
	FailureAuth        GenerationKind = "auth"
	FailurePermission  GenerationKind = "permission"
	FailureForbidden   GenerationKind = "forbidden"
	FailureNotFound    GenerationKind = "not_found"
	FailureUnavailable GenerationKind = "unavailable"
	FailureStatus      GenerationKind = "status"
	FailureBadPayload  GenerationKind = "bad_payload"
	FailureBadShape    GenerationKind = "bad_shape"
	FailureTimeout     GenerationKind = "timeout"
	FailureConnection  GenerationKind = "connection"
	FailureInternal    GenerationKind = "internal"
)

// Generation is the structured result of a generative call. On GenerationOK
// Text is the trimmed model answer; on every failure kind Text is the
// human-readable degraded message for that failure.
type Generation struct {
	Kind GenerationKind `json:"kind"`
	Text string         `json:"text"`
}

func (g Generation) Failed() bool {
	return g.Kind != GenerationOK
}
