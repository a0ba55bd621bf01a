package pact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// BuildRequest turns the interaction's expected request into a live request
// against the provider base URL. Only request/response interactions carry a
// request section.
func (i *Interaction) BuildRequest(base *url.URL) (*http.Request, error) {
	request := i.Request()
	if request == nil {
		return nil, errors.Errorf("interaction '%s' has no request defined", i.Description)
	}

	method, ok := request["method"].(string)
	if !ok {
		method = http.MethodGet
	}
	path, _ := request["path"].(string)

	target := *base
	target.Path = strings.TrimSuffix(target.Path, "/") + path
	target.RawQuery = encodeQuery(request["query"])

	body, err := requestBody(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(strings.ToUpper(method), target.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build request")
	}

	for name, value := range headerMap(request) {
		req.Header.Set(name, value)
	}
	return req, nil
}

// encodeQuery handles the two query encodings pact files use: the v2 raw
// query string and the v3 map of parameter name to value list.
func encodeQuery(query interface{}) string {
	switch q := query.(type) {
	case string:
		return q
	case map[string]interface{}:
		values := url.Values{}
		for name, value := range q {
			switch v := value.(type) {
			case []interface{}:
				for _, item := range v {
					values.Add(name, fmt.Sprintf("%v", item))
				}
			default:
				values.Add(name, fmt.Sprintf("%v", v))
			}
		}
		return values.Encode()
	}
	return ""
}

func requestBody(request map[string]interface{}) (*bytes.Reader, error) {
	body, ok := request["body"]
	if !ok || body == nil {
		return bytes.NewReader(nil), nil
	}
	if text, ok := body.(string); ok {
		return bytes.NewReader([]byte(text)), nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode request body")
	}
	return bytes.NewReader(data), nil
}
