package verifier

import (
	"fmt"
	"net/http"

	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
	"github.com/pkg/errors"
)

// Failures maps a synthesized interaction description to its failure payload:
// an error, a mismatch description, or a body diff. An empty map is the only
// success condition of a run.
type Failures map[string]interface{}

// ContractLoader resolves a consumer's pact source into a parsed document.
type ContractLoader interface {
	Load(source string, auth pact.Auth) (*pact.Pact, error)
}

// Verifier drives one provider verification run. Consumers and interactions
// are processed strictly sequentially; the failure map is owned by the single
// calling goroutine for the duration of VerifyProvider.
type Verifier struct {
	Client     *http.Client
	Loader     ContractLoader
	Registry   *MethodRegistry
	Tasks      TaskRunner
	Properties Properties
	Reporters  Reporters
}

func (v *Verifier) httpClient() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return http.DefaultClient
}

func (v *Verifier) loader() ContractLoader {
	if v.Loader != nil {
		return v.Loader
	}
	return &pact.Loader{Client: v.Client}
}

func (v *Verifier) reporters() Reporters {
	return v.Reporters
}

// VerifyProvider verifies every filtered interaction of every filtered
// consumer against the provider and returns the accumulated failure map. No
// interaction's failure prevents another from being attempted; the only error
// returned is a pact that could not be loaded, which ends the run after being
// reported.
func (v *Verifier) VerifyProvider(provider *ProviderInfo, consumers []*ConsumerInfo) (Failures, error) {
	failures := Failures{}
	v.reporters().RunStarted(provider)

	included := make([]*ConsumerInfo, 0, len(consumers))
	for _, consumer := range consumers {
		if includeConsumer(consumer, v.Properties) {
			included = append(included, consumer)
		}
	}
	if len(included) == 0 {
		v.reporters().WarnNoConsumers(provider)
		v.reporters().RunFinished(failures)
		return failures, nil
	}

	for _, consumer := range included {
		if err := v.verifyConsumer(provider, consumer, failures); err != nil {
			return failures, err
		}
	}

	v.reporters().RunFinished(failures)
	return failures, nil
}

func (v *Verifier) verifyConsumer(provider *ProviderInfo, consumer *ConsumerInfo, failures Failures) error {
	v.reporters().ConsumerStarted(consumer)
	v.reporters().PactSource(consumer.Source, pact.SourceKind(consumer.Source))

	p, err := v.loader().Load(consumer.Source, consumer.Auth)
	if err != nil {
		v.reporters().PactLoadFailed(consumer, err)
		return errors.Wrapf(err, "unable to verify consumer '%s'", consumer.Name)
	}

	interactions := make([]*pact.Interaction, 0, len(p.Interactions))
	for _, interaction := range p.Interactions {
		if includeInteraction(interaction, v.Properties) {
			interactions = append(interactions, interaction)
		}
	}
	if len(interactions) == 0 {
		v.reporters().WarnNoInteractions(consumer)
		return nil
	}

	execute := v.executorFor(provider, p)

	for _, interaction := range interactions {
		v.reporters().InteractionStarted(interaction)
		key := interactionKey(p, provider, interaction)

		if interaction.State != "" {
			setup := v.applyState(interaction.State, provider, consumer, PhaseSetup)
			if !setup.ok {
				// comparison is skipped entirely for this interaction
				failures[fmt.Sprintf("%s - state change '%s'", key, interaction.State)] = setup.failure
				continue
			}
		}

		execute(interaction, key, failures)

		if interaction.State != "" && provider.StateChangeTeardown {
			// teardown failures are reported by the driver, not scored
			v.applyState(interaction.State, provider, consumer, PhaseTeardown)
		}
	}
	return nil
}

// interactionKey synthesizes the human-readable description failure-map
// entries are keyed by.
func interactionKey(p *pact.Pact, provider *ProviderInfo, interaction *pact.Interaction) string {
	consumer := p.Consumer
	key := fmt.Sprintf("Verifying a pact between %s and %s - %s", consumer, provider.Name, interaction.Description)
	if interaction.State != "" {
		key = fmt.Sprintf("%s given %s", key, interaction.State)
	}
	return key
}

// recordResponse reports each facet outcome and records the mismatching ones.
func (v *Verifier) recordResponse(comparison *ResponseComparison, key string, failures Failures) {
	v.reporters().StatusResult(comparison.Status)
	if !comparison.StatusOK() {
		failures[key+" has a matching status"] = comparison.Status
	}

	for name, result := range comparison.Headers {
		v.reporters().HeaderResult(name, result)
		if result != true {
			failures[fmt.Sprintf("%s includes header '%s'", key, name)] = result
		}
	}

	v.reporters().BodyResult(comparison.Body)
	if len(comparison.Body) > 0 {
		failures[key+" has a matching body"] = comparison.Body
	}
}
