// Package verifier is the public surface of pact-verifier. A host test suite
// constructs a ProviderInfo, one ConsumerInfo per pact, and calls
// VerifyProvider; the returned failure map is empty exactly when every
// interaction verified.
package verifier

import (
	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
	app "github.com/form3tech-oss/pact-verifier/internal/app/verifier"
)

type (
	Verifier           = app.Verifier
	ProviderInfo       = app.ProviderInfo
	ConsumerInfo       = app.ConsumerInfo
	StateChangeHandler = app.StateChangeHandler
	Phase              = app.Phase
	TaskRunner         = app.TaskRunner
	MethodRegistry     = app.MethodRegistry
	VerificationFunc   = app.VerificationFunc
	VerificationMode   = app.VerificationMode
	Failures           = app.Failures
	Properties         = app.Properties
	Reporter           = app.Reporter
	Reporters          = app.Reporters
	LogReporter        = app.LogReporter
	ProviderResponse   = app.ProviderResponse
	Message            = app.Message
	BodyDiff           = app.BodyDiff
	Auth               = pact.Auth
)

const (
	PhaseSetup    = app.PhaseSetup
	PhaseTeardown = app.PhaseTeardown

	ModeAuto            = app.ModeAuto
	ModeRequestResponse = app.ModeRequestResponse
	ModeMethods         = app.ModeMethods

	PropConsumerFilter    = app.PropConsumerFilter
	PropDescriptionFilter = app.PropDescriptionFilter
	PropStateFilter       = app.PropStateFilter
	PropShowStacktrace    = app.PropShowStacktrace
)

var (
	NewMethodRegistry = app.NewMethodRegistry
	MapProperties     = app.MapProperties
	EnvProperties     = app.EnvProperties
)

// New builds a verifier with the default log reporter attached.
func New() *Verifier {
	return &Verifier{
		Reporters: Reporters{&LogReporter{}},
	}
}
