package verifier

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Phase distinguishes the two invocations of a state-change handler around an
// interaction.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseTeardown
)

func (p Phase) String() string {
	if p == PhaseTeardown {
		return "teardown"
	}
	return "setup"
}

// StateChangeHandler is the polymorphic state-change target: a programmatic
// callback, a reference to an externally registered task, or a URL. At most
// one field should be set; they are consulted in that order.
type StateChangeHandler struct {
	// Callback is invoked with the state label and phase. A URL-shaped
	// return value hands processing over to the HTTP handler at that URL;
	// any other return value is the final result.
	Callback func(state string, phase Phase) (interface{}, error)
	Task     string
	URL      string
}

func (h StateChangeHandler) empty() bool {
	return h.Callback == nil && h.Task == "" && strings.TrimSpace(h.URL) == ""
}

// TaskRunner executes externally registered build tasks. Runs are
// fire-and-forget: the driver reports success as soon as the task is
// dispatched and never observes its outcome.
type TaskRunner interface {
	IsTask(ref string) bool
	Run(ref string, state string)
}

type stateChangeResult struct {
	ok      bool
	failure interface{}
}

var stateChangeOK = stateChangeResult{ok: true}

// applyState runs the state-change handler for one interaction. The
// consumer-level handler takes precedence over the provider's. Every failure
// is normalised into the result, never raised.
func (v *Verifier) applyState(state string, provider *ProviderInfo, consumer *ConsumerInfo, phase Phase) stateChangeResult {
	handler := consumer.StateChange
	if handler.empty() {
		handler = provider.StateChange
	}
	if handler.empty() {
		v.reporters().StateChangeIgnored(state)
		return stateChangeOK
	}

	v.reporters().StateChange(state, phase)

	if handler.Callback != nil {
		result, err := handler.Callback(state, phase)
		if err != nil {
			v.reporters().StateChangeFailed(state, err)
			return stateChangeResult{failure: err}
		}
		target, ok := urlShaped(result)
		if !ok {
			return stateChangeOK
		}
		return v.httpStateChange(target, state, provider, phase)
	}

	if handler.Task != "" {
		if v.Tasks != nil && v.Tasks.IsTask(handler.Task) {
			v.Tasks.Run(handler.Task, state)
			return stateChangeOK
		}
		log.Warnf("state change task '%s' is not registered", handler.Task)
		v.reporters().StateChangeIgnored(state)
		return stateChangeOK
	}

	return v.httpStateChange(handler.URL, state, provider, phase)
}

// urlShaped recognises a callback return value that should fall through to
// the HTTP handler.
func urlShaped(value interface{}) (string, bool) {
	switch v := value.(type) {
	case *url.URL:
		return v.String(), true
	case url.URL:
		return v.String(), true
	case string:
		if u, err := url.Parse(v); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			return v, true
		}
	}
	return "", false
}

func (v *Verifier) httpStateChange(target, state string, provider *ProviderInfo, phase Phase) stateChangeResult {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" {
		v.reporters().StateChangeInvalidURL(target)
		return stateChangeOK
	}

	req, err := stateChangeRequest(u, state, provider, phase)
	if err != nil {
		v.reporters().StateChangeFailed(state, err)
		return stateChangeResult{failure: err}
	}

	res, err := v.httpClient().Do(req)
	if err != nil {
		v.reporters().StateChangeFailed(state, err)
		return stateChangeResult{failure: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		v.reporters().StateChangeFailed(state, res.Status)
		return stateChangeResult{failure: res.Status}
	}
	return stateChangeOK
}

// stateChangeRequest carries the state label in the JSON body or as a query
// parameter depending on the provider's stateChangeUsesBody flag. The phase
// is only sent when the provider declares teardown support.
func stateChangeRequest(u *url.URL, state string, provider *ProviderInfo, phase Phase) (*http.Request, error) {
	if provider.StateChangeUsesBody {
		body := map[string]interface{}{"state": state}
		if provider.StateChangeTeardown {
			body["action"] = phase.String()
		}
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	query := u.Query()
	query.Set("state", state)
	if provider.StateChangeTeardown {
		query.Set("action", phase.String())
	}
	u.RawQuery = query.Encode()
	return http.NewRequest(http.MethodPost, u.String(), nil)
}
