package properties

// Verification is the confidence envelope attached to every resolution
// result. For address lookups it records whether the resolved record matches
// the requested address; for general searches it records which filters were
// honored by the provider versus applied in-process.
type Verification struct {
	Valid         bool     `json:"valid"`
	Reasons       []string `json:"reasons"`
	MatchedFields []string `json:"matched_fields"`
}

// Invalid builds a failed verification with the given reasons.
func Invalid(reasons ...string) Verification {
	return Verification{Valid: false, Reasons: reasons}
}

// Verified builds a passing verification with the given matched fields.
func Verified(matched ...string) Verification {
	return Verification{Valid: true, MatchedFields: matched}
}
