package clepsydra

import (
	"context"
)

// bindingKeyType is a private type for context keys to avoid collisions.
type bindingKeyType string

const (
	bindingKey bindingKeyType = "clepsydra"
)

// ContextWithInstrumenter returns a copy of parent carrying instrumenter.
func ContextWithInstrumenter(parent context.Context, instrumenter *Instrumenter) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, bindingKey, instrumenter)
}

// GetInstrumenter extracts the instrumenter bound to ctx.
// Returns nil if none is present.
func GetInstrumenter(ctx context.Context) *Instrumenter {
	if ctx == nil {
		return nil
	}

	if instrumenter, ok := ctx.Value(bindingKey).(*Instrumenter); ok {
		return instrumenter
	}

	return nil
}
