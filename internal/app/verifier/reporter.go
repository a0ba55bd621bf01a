package verifier

import (
	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
	log "github.com/sirupsen/logrus"
)

// Reporter observes the verification lifecycle. Reporters never affect
// control flow or the returned failure map.
type Reporter interface {
	RunStarted(provider *ProviderInfo)
	WarnNoConsumers(provider *ProviderInfo)
	ConsumerStarted(consumer *ConsumerInfo)
	PactSource(source, kind string)
	PactLoadFailed(consumer *ConsumerInfo, err error)
	WarnNoInteractions(consumer *ConsumerInfo)
	InteractionStarted(interaction *pact.Interaction)
	StateChange(state string, phase Phase)
	StateChangeIgnored(state string)
	StateChangeInvalidURL(handler string)
	StateChangeFailed(state string, failure interface{})
	RequestFailed(description string, err error)
	StatusResult(result interface{})
	HeaderResult(name string, result interface{})
	BodyResult(diff BodyDiff)
	NoMethodsFound(description string)
	VerificationFailed(description string, err error)
	RunFinished(failures Failures)
}

// Reporters is the ordered listener list; every event is broadcast in
// registration order.
type Reporters []Reporter

func (r Reporters) RunStarted(provider *ProviderInfo) {
	for _, l := range r {
		l.RunStarted(provider)
	}
}

func (r Reporters) WarnNoConsumers(provider *ProviderInfo) {
	for _, l := range r {
		l.WarnNoConsumers(provider)
	}
}

func (r Reporters) ConsumerStarted(consumer *ConsumerInfo) {
	for _, l := range r {
		l.ConsumerStarted(consumer)
	}
}

func (r Reporters) PactSource(source, kind string) {
	for _, l := range r {
		l.PactSource(source, kind)
	}
}

func (r Reporters) PactLoadFailed(consumer *ConsumerInfo, err error) {
	for _, l := range r {
		l.PactLoadFailed(consumer, err)
	}
}

func (r Reporters) WarnNoInteractions(consumer *ConsumerInfo) {
	for _, l := range r {
		l.WarnNoInteractions(consumer)
	}
}

func (r Reporters) InteractionStarted(interaction *pact.Interaction) {
	for _, l := range r {
		l.InteractionStarted(interaction)
	}
}

func (r Reporters) StateChange(state string, phase Phase) {
	for _, l := range r {
		l.StateChange(state, phase)
	}
}

func (r Reporters) StateChangeIgnored(state string) {
	for _, l := range r {
		l.StateChangeIgnored(state)
	}
}

func (r Reporters) StateChangeInvalidURL(handler string) {
	for _, l := range r {
		l.StateChangeInvalidURL(handler)
	}
}

func (r Reporters) StateChangeFailed(state string, failure interface{}) {
	for _, l := range r {
		l.StateChangeFailed(state, failure)
	}
}

func (r Reporters) RequestFailed(description string, err error) {
	for _, l := range r {
		l.RequestFailed(description, err)
	}
}

func (r Reporters) StatusResult(result interface{}) {
	for _, l := range r {
		l.StatusResult(result)
	}
}

func (r Reporters) HeaderResult(name string, result interface{}) {
	for _, l := range r {
		l.HeaderResult(name, result)
	}
}

func (r Reporters) BodyResult(diff BodyDiff) {
	for _, l := range r {
		l.BodyResult(diff)
	}
}

func (r Reporters) NoMethodsFound(description string) {
	for _, l := range r {
		l.NoMethodsFound(description)
	}
}

func (r Reporters) VerificationFailed(description string, err error) {
	for _, l := range r {
		l.VerificationFailed(description, err)
	}
}

func (r Reporters) RunFinished(failures Failures) {
	for _, l := range r {
		l.RunFinished(failures)
	}
}

// LogReporter is the default sink, writing progress through logrus.
type LogReporter struct {
	// ShowStacktrace logs execution errors with their full cause chain.
	ShowStacktrace bool
}

func (lr *LogReporter) RunStarted(provider *ProviderInfo) {
	log.Infof("verifying pacts for provider '%s'", provider.Name)
}

func (lr *LogReporter) WarnNoConsumers(provider *ProviderInfo) {
	log.Warnf("there are no consumers configured for provider '%s'", provider.Name)
}

func (lr *LogReporter) ConsumerStarted(consumer *ConsumerInfo) {
	log.Infof("verifying a pact with consumer '%s'", consumer.Name)
}

func (lr *LogReporter) PactSource(source, kind string) {
	log.Infof("loading pact from %s '%s'", kind, source)
}

func (lr *LogReporter) PactLoadFailed(consumer *ConsumerInfo, err error) {
	log.Errorf("unable to load pact for consumer '%s': %v", consumer.Name, err)
}

func (lr *LogReporter) WarnNoInteractions(consumer *ConsumerInfo) {
	log.Warnf("pact for consumer '%s' has no matching interactions", consumer.Name)
}

func (lr *LogReporter) InteractionStarted(interaction *pact.Interaction) {
	if interaction.State != "" {
		log.Infof("  %s (given %s)", interaction.Description, interaction.State)
		return
	}
	log.Infof("  %s", interaction.Description)
}

func (lr *LogReporter) StateChange(state string, phase Phase) {
	log.Infof("    %s state '%s'", phase, state)
}

func (lr *LogReporter) StateChangeIgnored(state string) {
	log.Infof("    no state change handler configured, ignoring state '%s'", state)
}

func (lr *LogReporter) StateChangeInvalidURL(handler string) {
	log.Warnf("    state change handler '%s' is not a valid URL, ignoring", handler)
}

func (lr *LogReporter) StateChangeFailed(state string, failure interface{}) {
	log.Errorf("    state change '%s' failed: %v", state, failure)
}

func (lr *LogReporter) RequestFailed(description string, err error) {
	if lr.ShowStacktrace {
		log.Errorf("    request for '%s' failed: %+v", description, err)
		return
	}
	log.Errorf("    request for '%s' failed: %v", description, err)
}

func (lr *LogReporter) StatusResult(result interface{}) {
	if result == true {
		log.Info("    has a matching status")
		return
	}
	log.Errorf("    status mismatch: %v", result)
}

func (lr *LogReporter) HeaderResult(name string, result interface{}) {
	if result == true {
		log.Infof("    includes header '%s'", name)
		return
	}
	log.Errorf("    header mismatch: %v", result)
}

func (lr *LogReporter) BodyResult(diff BodyDiff) {
	if len(diff) == 0 {
		log.Info("    has a matching body")
		return
	}
	for path, mismatch := range diff {
		log.Errorf("    body mismatch at %s: %s", path, mismatch)
	}
}

func (lr *LogReporter) NoMethodsFound(description string) {
	log.Errorf("    no verification methods registered for '%s'", description)
}

func (lr *LogReporter) VerificationFailed(description string, err error) {
	if lr.ShowStacktrace {
		log.Errorf("    verification of '%s' failed: %+v", description, err)
		return
	}
	log.Errorf("    verification of '%s' failed: %v", description, err)
}

func (lr *LogReporter) RunFinished(failures Failures) {
	if len(failures) == 0 {
		log.Info("all interactions verified")
		return
	}
	log.Errorf("%d verification failures", len(failures))
	for description, failure := range failures {
		log.Errorf("  %s: %v", description, failure)
	}
}
