package sessions

import (
	"encoding/json"
	"fmt"
)

// State is the authentication and onboarding state of one browser session.
//
// Invariant: when IsLoggedIn is false, Token is empty and ProfileComplete is false.
// Token is an opaque bearer credential issued by the counsellor backend.
type State struct {
	Token           string `json:"token,omitempty"`
	IsLoggedIn      bool   `json:"isLoggedIn"`
	ProfileComplete bool   `json:"profileComplete"`
}

// IsZero reports whether the state equals the logged-out defaults.
func (s State) IsZero() bool {
	return s == State{}
}

// Valid reports whether the state satisfies the login invariant.
func (s State) Valid() bool {
	if !s.IsLoggedIn {
		return s.Token == "" && !s.ProfileComplete
	}
	return s.Token != ""
}

// Marshal serializes a state for persistence.
func Marshal(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal restores a persisted state. A payload that violates the login
// invariant is rejected so a corrupt entry can never rehydrate a half-logged-in session.
func Unmarshal(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode session state: %w", err)
	}
	if !s.Valid() {
		return State{}, fmt.Errorf("decode session state: inconsistent fields")
	}
	return s, nil
}
