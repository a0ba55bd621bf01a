package verifier

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
	"github.com/pkg/errors"
)

type executeFunc func(interaction *pact.Interaction, key string, failures Failures)

// executorFor picks the execution strategy once per (provider, consumer)
// pair: message pacts are verified by invoking registered methods, everything
// else is replayed over HTTP unless the provider explicitly selects methods.
func (v *Verifier) executorFor(provider *ProviderInfo, p *pact.Pact) executeFunc {
	mode := provider.Mode
	if mode == ModeAuto {
		mode = ModeRequestResponse
		if p.Kind == pact.KindMessage {
			mode = ModeMethods
		}
	}

	if mode == ModeMethods {
		return func(interaction *pact.Interaction, key string, failures Failures) {
			v.verifyWithMethods(provider, p, interaction, key, failures)
		}
	}
	return func(interaction *pact.Interaction, key string, failures Failures) {
		v.verifyOverHTTP(provider, interaction, key, failures)
	}
}

// verifyOverHTTP replays the interaction's expected request against the
// provider and compares the live response. A failure to build or send the
// request is recorded and verification moves on.
func (v *Verifier) verifyOverHTTP(provider *ProviderInfo, interaction *pact.Interaction, key string, failures Failures) {
	base, err := provider.baseURL()
	if err != nil {
		v.requestFailed(interaction, key, failures, errors.Wrap(err, "invalid provider address"))
		return
	}

	req, err := interaction.BuildRequest(base)
	if err != nil {
		v.requestFailed(interaction, key, failures, err)
		return
	}

	res, err := v.httpClient().Do(req)
	if err != nil {
		v.requestFailed(interaction, key, failures, errors.Wrap(err, "unable to send request to provider"))
		return
	}
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		v.requestFailed(interaction, key, failures, errors.Wrap(err, "unable to read provider response"))
		return
	}

	actual := &ProviderResponse{
		StatusCode: res.StatusCode,
		Headers:    res.Header,
		Body:       body,
	}
	v.recordResponse(CompareResponse(interaction, actual), key, failures)
}

func (v *Verifier) requestFailed(interaction *pact.Interaction, key string, failures Failures, err error) {
	v.reporters().RequestFailed(interaction.Description, err)
	failures[key] = err
}

// verifyWithMethods looks up the registered verification methods fulfilling
// the interaction's description and invokes each one. No registered method is
// a failure for this interaction only.
func (v *Verifier) verifyWithMethods(provider *ProviderInfo, p *pact.Pact, interaction *pact.Interaction, key string, failures Failures) {
	var methods []VerificationMethod
	if v.Registry != nil {
		methods = v.Registry.Find(interaction.Description, provider.IncludePatterns)
	}
	if len(methods) == 0 {
		v.reporters().NoMethodsFound(interaction.Description)
		failures[key] = errors.Errorf("no verification methods registered for '%s'", interaction.Description)
		return
	}

	for _, method := range methods {
		outcome, err := invokeMethod(method)
		if err != nil {
			v.reporters().VerificationFailed(interaction.Description, err)
			failures[key] = err
			continue
		}

		if p.Kind == pact.KindMessage {
			diff := CompareMessage(interaction, asMessage(outcome))
			v.reporters().BodyResult(diff)
			if len(diff) > 0 {
				failures[key+" generates a message which has a matching body"] = diff
			}
			continue
		}

		res, ok := outcome.(*ProviderResponse)
		if !ok {
			err := errors.Errorf("verification method '%s' did not produce a response", method.Name)
			v.reporters().VerificationFailed(interaction.Description, err)
			failures[key] = err
			continue
		}
		v.recordResponse(CompareResponse(interaction, res), key, failures)
	}
}

func invokeMethod(method VerificationMethod) (outcome interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("verification method '%s' panicked: %v", method.Name, r)
		}
	}()
	return method.Invoke()
}

// asMessage normalises a method's return value into a Message. Values are
// round-tripped through JSON so that the contents compare against the pact
// document representation (numbers as float64, maps keyed by string).
func asMessage(outcome interface{}) *Message {
	switch m := outcome.(type) {
	case *Message:
		return normaliseMessage(m)
	case Message:
		return normaliseMessage(&m)
	case []byte:
		return &Message{Contents: decodeContents(m)}
	case nil:
		return &Message{}
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return &Message{Contents: fmt.Sprintf("%v", outcome)}
	}
	return &Message{Contents: decodeContents(data)}
}

func normaliseMessage(m *Message) *Message {
	data, err := json.Marshal(m.Contents)
	if err != nil {
		return m
	}
	return &Message{Contents: decodeContents(data), Metadata: m.Metadata}
}

func decodeContents(data []byte) interface{} {
	var contents interface{}
	if err := json.Unmarshal(data, &contents); err != nil {
		return string(data)
	}
	return contents
}
