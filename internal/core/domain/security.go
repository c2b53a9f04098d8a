package domain

// SecurityOutcome is the result of classifying one occurrence against the
// persecution/harm denylist. The zero value is Restricted.
type SecurityOutcome struct {
	unrestricted bool
	payload      map[string]any
}

// Unrestricted wraps a payload that may be disclosed as-is.
func Unrestricted(payload map[string]any) SecurityOutcome {
	return SecurityOutcome{unrestricted: true, payload: payload}
}

// Restricted is the masked outcome.
func Restricted() SecurityOutcome {
	return SecurityOutcome{}
}

// IsRestricted reports whether the payload was masked.
func (o SecurityOutcome) IsRestricted() bool { return !o.unrestricted }

// Payload returns the disclosable payload: the original for unrestricted
// outcomes and an empty object otherwise.
func (o SecurityOutcome) Payload() map[string]any {
	if !o.unrestricted {
		return map[string]any{}
	}
	return o.payload
}
