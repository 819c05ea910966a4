package clepsydra

import (
	"math/rand/v2"
	"strconv"
)

// TokenLength is the fixed width of every generated token.
const TokenLength = 10

// Tokens are drawn from [36^9, 36^10) so base-36 rendering is always
// exactly TokenLength characters wide.
const (
	tokenRangeEnd   int64 = 3656158440062976 // 36^10
	tokenRangeStart int64 = tokenRangeEnd / 36
)

// Identifier prefixes.
const (
	notifierPrefix            = "notifier_"
	instrumenterPrefix        = "instrumenter_"
	subscriberPrefix          = "subscriber_"
	monotonicSubscriberPrefix = "monotonic_subscriber_"
	eventPrefix               = "event_"
)

// Generate returns a random 10-character lowercase base-36 token.
// Safe for concurrent use. Tokens are identifiers, not secrets.
func Generate() string {
	return formatToken(tokenRangeStart + rand.Int64N(tokenRangeEnd-tokenRangeStart))
}

func formatToken(n int64) string {
	return strconv.FormatInt(n, 36)
}

func newEventID() string {
	return eventPrefix + Generate()
}
