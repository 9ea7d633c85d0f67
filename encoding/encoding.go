// Package encoding provides transport encoding for subscription descriptors.
// Hosts pass subscription details between pages and services as base64-encoded
// JSON; this package handles the marshaling in both directions.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	papaya "github.com/papaya-fi/papaya-go"
)

// EncodeSubscription converts subscription details to a base64-encoded JSON
// string suitable for URLs and data attributes.
//
// Returns an error if JSON marshaling fails.
func EncodeSubscription(details papaya.SubscriptionDetails) (string, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to marshal subscription details: %w", err)
	}
	return base64.StdEncoding.EncodeToString(detailsJSON), nil
}

// DecodeSubscription converts a base64-encoded JSON string back to
// subscription details.
//
// Returns an error if base64 decoding or JSON unmarshaling fails.
func DecodeSubscription(encoded string) (papaya.SubscriptionDetails, error) {
	var details papaya.SubscriptionDetails

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return details, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &details); err != nil {
		return details, fmt.Errorf("failed to unmarshal subscription details: %w", err)
	}

	return details, nil
}

// EncodeState converts a resolved state view to a base64-encoded JSON string,
// letting hosts snapshot the widget state across reloads.
//
// Returns an error if JSON marshaling fails.
func EncodeState(view papaya.StateView) (string, error) {
	viewJSON, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state view: %w", err)
	}
	return base64.StdEncoding.EncodeToString(viewJSON), nil
}

// DecodeState converts a base64-encoded JSON string back to a state view.
//
// Returns an error if base64 decoding or JSON unmarshaling fails.
func DecodeState(encoded string) (papaya.StateView, error) {
	var view papaya.StateView

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return view, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &view); err != nil {
		return view, fmt.Errorf("failed to unmarshal state view: %w", err)
	}

	return view, nil
}
