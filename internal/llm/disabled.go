package llm

import "context"

// Disabled is the "none" provider: every call fails with KindDisabled.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", &Error{Kind: KindDisabled, Provider: "none"}
}

func (Disabled) Probe(context.Context) (string, error) {
	return "LLM is disabled.", nil
}

// unavailable stands in for a backend that could not be constructed, so the
// failure surfaces on use as a typed error.
type unavailable struct {
	name string
	err  error
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) Complete(context.Context, Request) (string, error) { return "", u.err }

func (u unavailable) Probe(context.Context) (string, error) { return "", u.err }
