package pact

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Kind discriminates the two pact document variants. It is inferred once per
// document, never per interaction.
type Kind int

const (
	KindRequestResponse Kind = iota
	KindMessage
)

func (k Kind) String() string {
	if k == KindMessage {
		return "message"
	}
	return "request-response"
}

type Pact struct {
	Consumer     string
	Provider     string
	Kind         Kind
	Interactions []*Interaction
	Source       string
}

// Interaction is one expected exchange. The raw pact definition is kept as a
// generic map, same as the on-disk format, with typed accessors over it.
type Interaction struct {
	Description string
	State       string
	Kind        Kind
	definition  map[string]interface{}
}

// Parse decodes a pact document. The variant is determined from the top-level
// key set: documents carrying "messages" are message pacts, everything else is
// treated as request/response.
func Parse(data []byte, source string) (*Pact, error) {
	kind := KindRequestResponse
	listKey := "interactions"
	if gjson.GetBytes(data, "messages").Exists() {
		kind = KindMessage
		listKey = "messages"
	}

	document := make(map[string]interface{})
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrap(err, "unable to parse pact document")
	}

	p := &Pact{
		Consumer: pacticipantName(document, "consumer"),
		Provider: pacticipantName(document, "provider"),
		Kind:     kind,
		Source:   source,
	}
	if p.Consumer == "" {
		return nil, errors.New("unable to parse pact document, no consumer name defined")
	}

	list, ok := document[listKey].([]interface{})
	if !ok {
		return nil, errors.Errorf("unable to parse pact document, no %s defined", listKey)
	}

	for n, entry := range list {
		definition, ok := entry.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("unable to parse %s[%d], not an object", listKey, n)
		}
		interaction, err := loadInteraction(definition, kind)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse %s[%d]", listKey, n)
		}
		p.Interactions = append(p.Interactions, interaction)
	}

	return p, nil
}

func pacticipantName(document map[string]interface{}, role string) string {
	entry, ok := document[role].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := entry["name"].(string)
	return name
}

func loadInteraction(definition map[string]interface{}, kind Kind) (*Interaction, error) {
	description, ok := definition["description"].(string)
	if !ok {
		return nil, errors.New("no description defined")
	}

	if kind == KindRequestResponse {
		if _, ok := definition["request"].(map[string]interface{}); !ok {
			return nil, errors.New("no request defined")
		}
		if _, ok := definition["response"].(map[string]interface{}); !ok {
			return nil, errors.New("no response defined")
		}
	}

	return &Interaction{
		Description: description,
		State:       providerState(definition),
		Kind:        kind,
		definition:  definition,
	}, nil
}

// providerState reads the v2 "providerState" string or, failing that, the
// first entry of the v3 "providerStates" list.
func providerState(definition map[string]interface{}) string {
	if state, ok := definition["providerState"].(string); ok {
		return state
	}
	states, ok := definition["providerStates"].([]interface{})
	if !ok || len(states) == 0 {
		return ""
	}
	first, ok := states[0].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := first["name"].(string)
	return name
}

func (i *Interaction) Request() map[string]interface{} {
	request, _ := i.definition["request"].(map[string]interface{})
	return request
}

func (i *Interaction) response() map[string]interface{} {
	response, _ := i.definition["response"].(map[string]interface{})
	return response
}

// ExpectedStatus is the response status the consumer recorded. Pact files
// decode numbers as float64.
func (i *Interaction) ExpectedStatus() int {
	status, ok := i.response()["status"].(float64)
	if !ok {
		return 200
	}
	return int(status)
}

// ExpectedHeaders returns the response headers the consumer recorded. Only
// these are checked during verification, the provider may send more.
func (i *Interaction) ExpectedHeaders() map[string]string {
	return headerMap(i.response())
}

func (i *Interaction) ExpectedBody() (interface{}, bool) {
	body, ok := i.response()["body"]
	return body, ok
}

// MessageContents is the expected payload of a message interaction.
func (i *Interaction) MessageContents() (interface{}, bool) {
	contents, ok := i.definition["contents"]
	return contents, ok
}

func (i *Interaction) MessageMetadata() map[string]interface{} {
	metadata, ok := i.definition["metaData"].(map[string]interface{})
	if !ok {
		metadata, _ = i.definition["metadata"].(map[string]interface{})
	}
	return metadata
}

func headerMap(section map[string]interface{}) map[string]string {
	raw, ok := section["headers"].(map[string]interface{})
	if !ok {
		return nil
	}
	headers := make(map[string]string, len(raw))
	for name, value := range raw {
		headers[name] = fmt.Sprintf("%v", value)
	}
	return headers
}

// Rules holds the matchingRules section of a response (or message), giving
// regex matchers precedence over exact comparison at the paths they cover.
type Rules struct {
	raw map[string]interface{}
}

// ResponseRules extracts the response matchingRules of the interaction. For
// message interactions the rules sit on the message itself.
func (i *Interaction) ResponseRules() Rules {
	section := i.response()
	if i.Kind == KindMessage {
		section = i.definition
	}
	rules, ok := section["matchingRules"].(map[string]interface{})
	if !ok {
		rules = map[string]interface{}{}
	}
	return Rules{raw: rules}
}

// BodyRegexps collects every regex matcher declared for a body path, keyed by
// the normalised "$.body.…" path. It understands both v2 style rules
// ("$.body.data.id": {"regex": "<exp>"}) and v3 style rules
// ("body": {"$.data.id": {"matchers": [{"match": "regex", ...}]}}).
func (r Rules) BodyRegexps() map[string]*regexp.Regexp {
	results := map[string]*regexp.Regexp{}
	for key, value := range r.raw {
		if strings.HasPrefix(key, "$.body") {
			if re := compileRule(value); re != nil {
				results[key] = re
			}
			continue
		}
		if key != "body" {
			continue
		}
		properties, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		for property, rule := range properties {
			path := "$.body." + strings.TrimPrefix(property, "$.")
			if re := compileRule(rule); re != nil {
				results[path] = re
			}
		}
	}
	return results
}

// HeaderRegexp looks up a regex matcher for a response header, checking the
// v2 "$.headers.<name>" form and the v3 "header" section.
func (r Rules) HeaderRegexp(name string) (*regexp.Regexp, bool) {
	if rule, ok := r.raw["$.headers."+name]; ok {
		if re := compileRule(rule); re != nil {
			return re, true
		}
	}
	section, ok := r.raw["header"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	rule, ok := section[name]
	if !ok {
		return nil, false
	}
	re := compileRule(rule)
	return re, re != nil
}

// compileRule digs the regex expression out of a single matching rule, either
// the v2 {"regex": "<exp>"} form or the v3 {"matchers": [...]} form, and
// anchors it the way consumer-side matchers are applied.
func compileRule(rule interface{}) *regexp.Regexp {
	value, ok := rule.(map[string]interface{})
	if !ok {
		return nil
	}

	if expression, ok := value["regex"].(string); ok {
		return compileAnchored(expression)
	}

	matchers, ok := value["matchers"].([]interface{})
	if !ok {
		return nil
	}
	for _, matcher := range matchers {
		entry, ok := matcher.(map[string]interface{})
		if !ok {
			continue
		}
		if match, ok := entry["match"].(string); !ok || match != "regex" {
			continue
		}
		if expression, ok := entry["regex"].(string); ok {
			return compileAnchored(expression)
		}
	}
	return nil
}

func compileAnchored(expression string) *regexp.Regexp {
	re, err := regexp.Compile("^(?:" + expression + ")$")
	if err != nil {
		return nil
	}
	return re
}
