package verifier

import (
	"fmt"

	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
)

// recordingReporter captures lifecycle events for assertions.
type recordingReporter struct {
	events []string
}

func (r *recordingReporter) record(format string, args ...interface{}) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) count(prefix string) int {
	n := 0
	for _, event := range r.events {
		if len(event) >= len(prefix) && event[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (r *recordingReporter) RunStarted(provider *ProviderInfo) { r.record("run started %s", provider.Name) }
func (r *recordingReporter) WarnNoConsumers(provider *ProviderInfo) {
	r.record("no consumers %s", provider.Name)
}
func (r *recordingReporter) ConsumerStarted(consumer *ConsumerInfo) {
	r.record("consumer started %s", consumer.Name)
}
func (r *recordingReporter) PactSource(source, kind string) { r.record("pact source %s %s", kind, source) }
func (r *recordingReporter) PactLoadFailed(consumer *ConsumerInfo, err error) {
	r.record("load failed %s", consumer.Name)
}
func (r *recordingReporter) WarnNoInteractions(consumer *ConsumerInfo) {
	r.record("no interactions %s", consumer.Name)
}
func (r *recordingReporter) InteractionStarted(interaction *pact.Interaction) {
	r.record("interaction %s", interaction.Description)
}
func (r *recordingReporter) StateChange(state string, phase Phase) {
	r.record("state change %s %s", phase, state)
}
func (r *recordingReporter) StateChangeIgnored(state string) { r.record("state ignored %s", state) }
func (r *recordingReporter) StateChangeInvalidURL(handler string) {
	r.record("state invalid url %s", handler)
}
func (r *recordingReporter) StateChangeFailed(state string, failure interface{}) {
	r.record("state failed %s: %v", state, failure)
}
func (r *recordingReporter) RequestFailed(description string, err error) {
	r.record("request failed %s", description)
}
func (r *recordingReporter) StatusResult(result interface{}) { r.record("status %v", result) }
func (r *recordingReporter) HeaderResult(name string, result interface{}) {
	r.record("header %s %v", name, result)
}
func (r *recordingReporter) BodyResult(diff BodyDiff) { r.record("body diffs %d", len(diff)) }
func (r *recordingReporter) NoMethodsFound(description string) {
	r.record("no methods %s", description)
}
func (r *recordingReporter) VerificationFailed(description string, err error) {
	r.record("verification failed %s", description)
}
func (r *recordingReporter) RunFinished(failures Failures) { r.record("run finished %d", len(failures)) }
