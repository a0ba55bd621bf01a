package verifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStateConsumerOverridesProvider(t *testing.T) {
	var providerCalled, consumerCalled bool
	v := &Verifier{}
	provider := &ProviderInfo{
		StateChange: StateChangeHandler{Callback: func(state string, phase Phase) (interface{}, error) {
			providerCalled = true
			return nil, nil
		}},
	}
	consumer := &ConsumerInfo{
		StateChange: StateChangeHandler{Callback: func(state string, phase Phase) (interface{}, error) {
			consumerCalled = true
			return nil, nil
		}},
	}

	result := v.applyState("an address exists", provider, consumer, PhaseSetup)
	assert.True(t, result.ok)
	assert.True(t, consumerCalled)
	assert.False(t, providerCalled)
}

func TestApplyStateNoHandlerIsIgnored(t *testing.T) {
	reporter := &recordingReporter{}
	v := &Verifier{Reporters: Reporters{reporter}}

	result := v.applyState("an address exists", &ProviderInfo{}, &ConsumerInfo{}, PhaseSetup)
	assert.True(t, result.ok)
	assert.Equal(t, 1, reporter.count("state ignored"))
}

func TestApplyStateCallbackURLFallsThroughToHTTP(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	v := &Verifier{}
	provider := &ProviderInfo{
		StateChange: StateChangeHandler{Callback: func(state string, phase Phase) (interface{}, error) {
			return ts.URL, nil
		}},
	}

	result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
	assert.True(t, result.ok)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestApplyStateCallbackNonURLResultMakesNoHTTPCall(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	v := &Verifier{}
	provider := &ProviderInfo{
		StateChange: StateChangeHandler{Callback: func(state string, phase Phase) (interface{}, error) {
			return "done", nil
		}},
	}

	result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
	assert.True(t, result.ok)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestApplyStateCallbackError(t *testing.T) {
	reporter := &recordingReporter{}
	v := &Verifier{Reporters: Reporters{reporter}}
	provider := &ProviderInfo{
		StateChange: StateChangeHandler{Callback: func(state string, phase Phase) (interface{}, error) {
			return nil, assert.AnError
		}},
	}

	result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
	assert.False(t, result.ok)
	assert.Equal(t, assert.AnError, result.failure)
	assert.Equal(t, 1, reporter.count("state failed"))
}

func TestApplyStateHTTPStatuses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantOK      bool
		wantFailure string
	}{
		{name: "200 succeeds", status: http.StatusOK, wantOK: true},
		{name: "302 succeeds", status: http.StatusFound, wantOK: true},
		{name: "404 fails with status line", status: http.StatusNotFound, wantFailure: "404 Not Found"},
		{name: "500 fails with status line", status: http.StatusInternalServerError, wantFailure: "500 Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			v := &Verifier{}
			provider := &ProviderInfo{StateChange: StateChangeHandler{URL: ts.URL}}

			result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
			assert.Equal(t, tt.wantOK, result.ok)
			if tt.wantFailure != "" {
				assert.Contains(t, result.failure.(string), tt.wantFailure)
			}
		})
	}
}

func TestApplyStateBodyPlacement(t *testing.T) {
	type received struct {
		query  map[string][]string
		body   map[string]interface{}
		header string
	}
	var last received
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		last = received{query: r.URL.Query(), header: r.Header.Get("Content-Type")}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &last.body)
		}
	}))
	defer ts.Close()

	v := &Verifier{}

	t.Run("state in json body with teardown action", func(t *testing.T) {
		provider := &ProviderInfo{
			StateChange:         StateChangeHandler{URL: ts.URL},
			StateChangeUsesBody: true,
			StateChangeTeardown: true,
		}
		result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseTeardown)
		require.True(t, result.ok)
		assert.Equal(t, "application/json", last.header)
		assert.Equal(t, map[string]interface{}{"state": "an address exists", "action": "teardown"}, last.body)
	})

	t.Run("state as query parameter", func(t *testing.T) {
		provider := &ProviderInfo{StateChange: StateChangeHandler{URL: ts.URL}}
		result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
		require.True(t, result.ok)
		assert.Equal(t, []string{"an address exists"}, last.query["state"])
		assert.NotContains(t, last.query, "action")
	})

	t.Run("setup action as query parameter when teardown enabled", func(t *testing.T) {
		provider := &ProviderInfo{
			StateChange:         StateChangeHandler{URL: ts.URL},
			StateChangeTeardown: true,
		}
		result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
		require.True(t, result.ok)
		assert.Equal(t, []string{"setup"}, last.query["action"])
	})
}

func TestApplyStateInvalidURLIsIgnored(t *testing.T) {
	reporter := &recordingReporter{}
	v := &Verifier{Reporters: Reporters{reporter}}
	provider := &ProviderInfo{StateChange: StateChangeHandler{URL: "::not-a-url::"}}

	result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
	assert.True(t, result.ok)
	assert.Nil(t, result.failure)
	assert.Equal(t, 1, reporter.count("state invalid url"))
}

type fakeTasks struct {
	known string
	runs  []string
}

func (f *fakeTasks) IsTask(ref string) bool { return ref == f.known }
func (f *fakeTasks) Run(ref, state string)  { f.runs = append(f.runs, ref+":"+state) }

func TestApplyStateTask(t *testing.T) {
	tasks := &fakeTasks{known: "seedAddresses"}
	v := &Verifier{Tasks: tasks}
	provider := &ProviderInfo{StateChange: StateChangeHandler{Task: "seedAddresses"}}

	result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
	assert.True(t, result.ok)
	assert.Equal(t, []string{"seedAddresses:an address exists"}, tasks.runs)
}

func TestApplyStateUnknownTaskIsIgnored(t *testing.T) {
	reporter := &recordingReporter{}
	v := &Verifier{Tasks: &fakeTasks{known: "seedAddresses"}, Reporters: Reporters{reporter}}
	provider := &ProviderInfo{StateChange: StateChangeHandler{Task: "dropAddresses"}}

	result := v.applyState("an address exists", provider, &ConsumerInfo{}, PhaseSetup)
	assert.True(t, result.ok)
	assert.Equal(t, 1, reporter.count("state ignored"))
}
