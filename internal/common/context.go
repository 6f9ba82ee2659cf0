package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyFamilyID  contextKey = "family_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithFamilyID adds a family ID to the context
func WithFamilyID(ctx context.Context, familyID string) context.Context {
	return context.WithValue(ctx, ContextKeyFamilyID, familyID)
}

// FamilyIDFromContext extracts the family ID from context
func FamilyIDFromContext(ctx context.Context) string {
	if familyID, ok := ctx.Value(ContextKeyFamilyID).(string); ok {
		return familyID
	}
	return ""
}
