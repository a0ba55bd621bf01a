package verifier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"

	"github.com/PaesslerAG/jsonpath"
	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
)

// ProviderResponse is the actual outcome of executing a request/response
// interaction against the provider.
type ProviderResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Message is the actual outcome of invoking a message verification method.
type Message struct {
	Contents interface{}
	Metadata map[string]interface{}
}

// BodyDiff maps a document path to a mismatch description. Empty means match.
type BodyDiff map[string]string

// ResponseComparison holds the per-facet outcome of comparing an expected
// response against the actual one. Each facet is either the literal true or a
// mismatch description.
type ResponseComparison struct {
	Status  interface{}
	Headers map[string]interface{}
	Body    BodyDiff
}

func (c *ResponseComparison) StatusOK() bool {
	return c.Status == true
}

// CompareResponse diffs the interaction's expected response against the
// provider's actual response. It never mutates its inputs and shares no state
// across calls.
func CompareResponse(interaction *pact.Interaction, actual *ProviderResponse) *ResponseComparison {
	rules := interaction.ResponseRules()
	return &ResponseComparison{
		Status:  compareStatus(interaction.ExpectedStatus(), actual.StatusCode),
		Headers: compareHeaders(interaction.ExpectedHeaders(), actual.Headers, rules),
		Body:    compareResponseBody(interaction, actual.Body, rules),
	}
}

// CompareMessage diffs the expected message payload and metadata against the
// actual message produced by a verification method.
func CompareMessage(interaction *pact.Interaction, actual *Message) BodyDiff {
	diff := BodyDiff{}
	regexps := interaction.ResponseRules().BodyRegexps()

	expected, ok := interaction.MessageContents()
	if ok {
		compareValues("$.body", expected, actual.Contents, regexps, diff)
		applyRegexRules(actual.Contents, regexps, diff)
	}

	for key, value := range interaction.MessageMetadata() {
		path := "$.metadata." + key
		actualValue, present := actual.Metadata[key]
		if !present {
			diff[path] = fmt.Sprintf("expected metadata '%s' but it was missing", key)
			continue
		}
		if fmt.Sprintf("%v", value) != fmt.Sprintf("%v", actualValue) {
			diff[path] = fmt.Sprintf("expected metadata '%s' to be '%v' but was '%v'", key, value, actualValue)
		}
	}
	return diff
}

func compareStatus(expected, actual int) interface{} {
	if expected == actual {
		return true
	}
	return fmt.Sprintf("expected status of %d but was %d", expected, actual)
}

var commaSpacing = regexp.MustCompile(`,\s*`)

// compareHeaders checks only the headers the consumer recorded; the provider
// may send more. A regex matching rule on a header takes precedence over the
// exact comparison.
func compareHeaders(expected map[string]string, actual http.Header, rules pact.Rules) map[string]interface{} {
	results := make(map[string]interface{}, len(expected))
	for name, value := range expected {
		actualValue := actual.Get(name)

		if re, ok := rules.HeaderRegexp(name); ok {
			if re.MatchString(actualValue) {
				results[name] = true
			} else {
				results[name] = fmt.Sprintf("expected header '%s' to match '%s' but was '%s'", name, re.String(), actualValue)
			}
			continue
		}

		if normaliseHeader(value) == normaliseHeader(actualValue) {
			results[name] = true
		} else {
			results[name] = fmt.Sprintf("expected header '%s' to have value '%s' but was '%s'", name, value, actualValue)
		}
	}
	return results
}

// normaliseHeader collapses the whitespace after value separators, which is
// insignificant in header values.
func normaliseHeader(value string) string {
	return commaSpacing.ReplaceAllString(value, ", ")
}

func compareResponseBody(interaction *pact.Interaction, actualBody []byte, rules pact.Rules) BodyDiff {
	diff := BodyDiff{}
	expected, ok := interaction.ExpectedBody()
	if !ok {
		return diff
	}

	if text, ok := expected.(string); ok {
		if text != string(actualBody) {
			diff["$.body"] = fmt.Sprintf("expected body '%s' but received '%s'", text, string(actualBody))
		}
		return diff
	}

	var actual interface{}
	if err := json.Unmarshal(actualBody, &actual); err != nil {
		diff["$.body"] = fmt.Sprintf("expected a json body but the actual body could not be parsed: %v", err)
		return diff
	}

	regexps := rules.BodyRegexps()
	compareValues("$.body", expected, actual, regexps, diff)
	applyRegexRules(actual, regexps, diff)
	return diff
}

// compareValues walks the expected document. Objects are compared as subsets,
// extra actual fields are allowed; arrays must match in length and order.
// Paths covered by a regex rule are skipped here and checked by
// applyRegexRules.
func compareValues(path string, expected, actual interface{}, regexps map[string]*regexp.Regexp, diff BodyDiff) {
	if _, ruled := regexps[path]; ruled {
		return
	}

	switch e := expected.(type) {
	case map[string]interface{}:
		a, ok := actual.(map[string]interface{})
		if !ok {
			diff[path] = fmt.Sprintf("expected an object but received %s", describeType(actual))
			return
		}
		for key, value := range e {
			childPath := path + "." + key
			actualValue, present := a[key]
			if !present {
				diff[childPath] = fmt.Sprintf("expected '%v' but the key was missing", value)
				continue
			}
			compareValues(childPath, value, actualValue, regexps, diff)
		}
	case []interface{}:
		a, ok := actual.([]interface{})
		if !ok {
			diff[path] = fmt.Sprintf("expected an array but received %s", describeType(actual))
			return
		}
		if len(e) != len(a) {
			diff[path] = fmt.Sprintf("expected an array of %d elements but received %d", len(e), len(a))
			return
		}
		for n, value := range e {
			compareValues(fmt.Sprintf("%s[%d]", path, n), value, a[n], regexps, diff)
		}
	default:
		if !reflect.DeepEqual(expected, actual) {
			diff[path] = fmt.Sprintf("expected '%v' but received '%v'", expected, actual)
		}
	}
}

// applyRegexRules evaluates every body matching rule against the actual
// document, resolving the rule path with jsonpath.
func applyRegexRules(actual interface{}, regexps map[string]*regexp.Regexp, diff BodyDiff) {
	if len(regexps) == 0 {
		return
	}
	document := map[string]interface{}{"body": actual}
	for path, re := range regexps {
		value, err := jsonpath.Get(path, document)
		if err != nil {
			diff[path] = fmt.Sprintf("expected a value matching '%s' but the path was missing", re.String())
			continue
		}
		text := fmt.Sprintf("%v", value)
		if !re.MatchString(text) {
			diff[path] = fmt.Sprintf("value '%s' does not match '%s'", text, re.String())
		}
	}
}

func describeType(value interface{}) string {
	switch value.(type) {
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "an array"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%v (%T)", value, value)
}
