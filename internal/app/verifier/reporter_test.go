package verifier

import (
	"testing"

	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedReporter struct {
	recordingReporter
	tag string
	log *[]string
}

func (r *taggedReporter) RunStarted(provider *ProviderInfo) {
	*r.log = append(*r.log, r.tag)
}

func TestReportersBroadcastInRegistrationOrder(t *testing.T) {
	var log []string
	reporters := Reporters{
		&taggedReporter{tag: "first", log: &log},
		&taggedReporter{tag: "second", log: &log},
		&taggedReporter{tag: "third", log: &log},
	}

	reporters.RunStarted(&ProviderInfo{Name: "address-service"})
	assert.Equal(t, []string{"first", "second", "third"}, log)
}

func TestLogReporterHandlesEveryEvent(t *testing.T) {
	var reporter Reporter = &LogReporter{ShowStacktrace: true}

	provider := &ProviderInfo{Name: "address-service"}
	consumer := &ConsumerInfo{Name: "address-client"}
	interaction := &pact.Interaction{Description: "a request", State: "addresses exist"}

	require.NotPanics(t, func() {
		reporter.RunStarted(provider)
		reporter.WarnNoConsumers(provider)
		reporter.ConsumerStarted(consumer)
		reporter.PactSource("pacts/address-client.json", "file")
		reporter.PactLoadFailed(consumer, assert.AnError)
		reporter.WarnNoInteractions(consumer)
		reporter.InteractionStarted(interaction)
		reporter.StateChange("addresses exist", PhaseSetup)
		reporter.StateChangeIgnored("addresses exist")
		reporter.StateChangeInvalidURL("not a url")
		reporter.StateChangeFailed("addresses exist", "500 Internal Server Error")
		reporter.RequestFailed("a request", assert.AnError)
		reporter.StatusResult(true)
		reporter.StatusResult("expected status of 200 but was 404")
		reporter.HeaderResult("Content-Type", true)
		reporter.BodyResult(BodyDiff{})
		reporter.BodyResult(BodyDiff{"$.body.a": "expected '1' but received '2'"})
		reporter.NoMethodsFound("a message")
		reporter.VerificationFailed("a message", assert.AnError)
		reporter.RunFinished(Failures{"a failure": "diff"})
	})
}
