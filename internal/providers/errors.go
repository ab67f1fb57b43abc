package providers

import "strings"

// ErrorType buckets provider failures so callers can decide whether to retry,
// skip a model, or give up.
type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// classifyRules are checked in order; the first matching substring wins.
// Quota must outrank rate: providers often report exhausted quota with a 429.
var classifyRules = []struct {
	typ     ErrorType
	markers []string
}{
	{ErrorQuota, []string{"quota", "credit", "insufficient_quota"}},
	{ErrorRate, []string{"rate", "429"}},
	{ErrorContext, []string{"context", "too long"}},
	{ErrorTransient, []string{"timeout", "temporarily", "unavailable"}},
}

// ClassifyError maps a provider error onto the taxonomy by substring match
// over the message. Anything unrecognized counts as permanent.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	for _, rule := range classifyRules {
		for _, marker := range rule.markers {
			if strings.Contains(msg, marker) {
				return rule.typ
			}
		}
	}
	return ErrorPermanent
}
