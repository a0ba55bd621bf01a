package verifier

import (
	"os"
	"strings"
)

// Recognised verification properties.
const (
	PropConsumerFilter    = "pact.filter.consumers"
	PropDescriptionFilter = "pact.filter.description"
	PropStateFilter       = "pact.filter.providerState"
	PropShowStacktrace    = "pact.showStacktrace"
)

// Properties is the configuration accessor the host supplies. The zero value
// has no properties set.
type Properties struct {
	HasProperty func(name string) bool
	GetProperty func(name string) string
}

func (p Properties) has(name string) bool {
	return p.HasProperty != nil && p.HasProperty(name)
}

func (p Properties) get(name string) string {
	if p.GetProperty == nil {
		return ""
	}
	return p.GetProperty(name)
}

// MapProperties builds an accessor over a fixed map.
func MapProperties(values map[string]string) Properties {
	return Properties{
		HasProperty: func(name string) bool {
			_, ok := values[name]
			return ok
		},
		GetProperty: func(name string) string {
			return values[name]
		},
	}
}

// EnvProperties reads properties from the environment, mapping
// "pact.filter.consumers" to PACT_FILTER_CONSUMERS.
func EnvProperties() Properties {
	return Properties{
		HasProperty: func(name string) bool {
			_, ok := os.LookupEnv(envName(name))
			return ok
		},
		GetProperty: func(name string) string {
			return os.Getenv(envName(name))
		},
	}
}

func envName(property string) string {
	name := strings.NewReplacer(".", "_", "-", "_").Replace(property)
	return strings.ToUpper(name)
}
