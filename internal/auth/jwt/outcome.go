package jwt

// Outcome classifies a verified token.
type Outcome int

const (
	// OutcomeInvalid is a token that parses but whose signature or claims
	// do not verify against the configured key.
	OutcomeInvalid Outcome = iota
	// OutcomeValid is a token with a good signature that has not expired.
	OutcomeValid
	// OutcomeExpired is an authentic token past its expiry.
	OutcomeExpired
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	default:
		return "invalid"
	}
}
