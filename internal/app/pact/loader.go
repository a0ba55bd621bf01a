package pact

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

const (
	fetchAttempts = 3
	fetchDelay    = 250 * time.Millisecond
)

// Auth carries the credentials used when fetching a pact from a remote
// source. Token takes precedence over basic auth when both are set.
type Auth struct {
	Username string
	Password string
	Token    string
}

func (a Auth) empty() bool {
	return a == Auth{}
}

// Loader resolves a pact source (local path or http(s) URL) into a parsed
// document. Zero value is usable.
type Loader struct {
	Client *http.Client
}

// SourceKind describes where a pact is loaded from, for reporting.
func SourceKind(source string) string {
	if isURL(source) {
		return "URL"
	}
	return "file"
}

func isURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func (l *Loader) Load(source string, auth Auth) (*Pact, error) {
	var data []byte
	var err error
	if isURL(source) {
		data, err = l.fetch(source, auth)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load pact from %s", source)
	}
	return Parse(data, source)
}

// fetch pulls a pact over HTTP. Broker endpoints are occasionally flaky
// during deploys, so transport errors and 5xx responses are retried.
func (l *Loader) fetch(source string, auth Auth) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	var data []byte
	err := retry.Do(func() error {
		req, err := http.NewRequest(http.MethodGet, source, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("Accept", "application/json")
		switch {
		case auth.Token != "":
			req.Header.Set("Authorization", "Bearer "+auth.Token)
		case !auth.empty():
			req.SetBasicAuth(auth.Username, auth.Password)
		}

		res, err := client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= http.StatusInternalServerError {
			return errors.Errorf("pact fetch returned %s", res.Status)
		}
		if res.StatusCode != http.StatusOK {
			return retry.Unrecoverable(errors.Errorf("pact fetch returned %s", res.Status))
		}

		data, err = io.ReadAll(res.Body)
		return err
	}, retry.Attempts(fetchAttempts), retry.Delay(fetchDelay), retry.LastErrorOnly(true))

	return data, err
}

// FileName derives a consumer-ish name from a pact source for callers that
// configure sources without knowing the consumer names up front.
func FileName(source string) string {
	trimmed := strings.TrimSuffix(source, "/")
	if idx := strings.LastIndexAny(trimmed, "/\\"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.TrimSuffix(trimmed, ".json")
}
