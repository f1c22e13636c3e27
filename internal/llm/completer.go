// Package llm fournit l'accès au service de complétion (API compatible OpenRouter/OpenAI)
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message est un message de conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// User construit une conversation à un seul message utilisateur
func User(content string) []Message {
	return []Message{{Role: "user", Content: content}}
}

// Options fixe les paramètres d'échantillonnage d'un appel
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Completer est le contrat du service de complétion utilisé par le pipeline
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// TransportError signale un échec HTTP ou réseau après épuisement des tentatives
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("completion http %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("completion transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError signale un dépassement du délai d'un appel
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("completion timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout indique si err provient d'un dépassement de délai
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
