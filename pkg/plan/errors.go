package plan

import "errors"

// FailureKind classifies a rejected edit batch.
type FailureKind string

const (
	// KindNotFound means replace_text does not occur anywhere in the document.
	KindNotFound FailureKind = "NotFound"

	// KindAmbiguousMatch means replace_text occurs more than once in editable text.
	KindAmbiguousMatch FailureKind = "AmbiguousMatch"

	// KindForbiddenRegion means every occurrence lies in a protected region.
	KindForbiddenRegion FailureKind = "ForbiddenRegion"

	// KindOverlap means two resolved edits touch the same bytes.
	KindOverlap FailureKind = "Overlap"

	// KindInvalidOutput means the model output could not be decoded or failed schema validation.
	KindInvalidOutput FailureKind = "InvalidOutput"
)

// MalformedToolCall reports an edit batch that cannot be applied safely.
// Reason is meant to be shown to the client (and fed back to the model) verbatim.
type MalformedToolCall struct {
	Kind     FailureKind `json:"kind"`
	Reason   string      `json:"reason"`
	IssueIDs []string    `json:"offending_issue_ids,omitempty"`
}

func (e *MalformedToolCall) Error() string {
	return "malformed tool call (" + string(e.Kind) + "): " + e.Reason
}

// Is matches any *MalformedToolCall of the same kind, or any kind when target's Kind is empty.
func (e *MalformedToolCall) Is(target error) bool {
	var other *MalformedToolCall
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == "" || other.Kind == e.Kind
}

// AsMalformed extracts a *MalformedToolCall from err's chain.
func AsMalformed(err error) (*MalformedToolCall, bool) {
	var mtc *MalformedToolCall
	if errors.As(err, &mtc) {
		return mtc, true
	}
	return nil, false
}
