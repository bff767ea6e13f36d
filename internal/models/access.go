package models

// AccessDecision is the per-request outcome of the review-visibility gate.
// Period is the active period the decision was computed against, nil when the
// lifetime-count fallback was used. Never persisted or cached across requests.
type AccessDecision struct {
	Granted bool          `json:"granted"`
	Period  *ReviewPeriod `json:"-"`
}

// RedactedReview is a review as exposed to a listing caller, with content
// already masked according to the caller's access decision.
type RedactedReview struct {
	Review
	AccessGranted bool `json:"access_granted"`
}

// RedactedLatestReview mirrors RedactedReview for the global latest feed.
type RedactedLatestReview struct {
	LatestReview
	AccessGranted bool `json:"access_granted"`
}
