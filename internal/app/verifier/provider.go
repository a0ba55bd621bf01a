package verifier

import (
	"fmt"
	"net/url"

	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
)

// VerificationMode selects the execution strategy for a (provider, consumer)
// pair. ModeAuto follows the pact variant: request/response pacts are replayed
// over HTTP, message pacts invoke registered provider methods.
type VerificationMode int

const (
	ModeAuto VerificationMode = iota
	ModeRequestResponse
	ModeMethods
)

// ProviderInfo identifies the provider under verification. Immutable for the
// duration of a run.
type ProviderInfo struct {
	Name     string
	Protocol string
	Host     string
	Port     int
	Path     string

	StateChange         StateChangeHandler
	StateChangeUsesBody bool
	StateChangeTeardown bool

	Mode VerificationMode
	// IncludePatterns scopes method discovery to registered methods whose
	// names match one of these patterns.
	IncludePatterns []string
}

func (p *ProviderInfo) baseURL() (*url.URL, error) {
	protocol := p.Protocol
	if protocol == "" {
		protocol = "http"
	}
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	raw := fmt.Sprintf("%s://%s", protocol, host)
	if p.Port != 0 {
		raw = fmt.Sprintf("%s:%d", raw, p.Port)
	}
	return url.Parse(raw + p.Path)
}

// ConsumerInfo names one consumer of the provider and where its pact lives.
type ConsumerInfo struct {
	Name   string
	Source string
	Auth   pact.Auth

	// StateChange overrides the provider-level handler when non-empty.
	StateChange StateChangeHandler
}
