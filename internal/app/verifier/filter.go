package verifier

import (
	"regexp"
	"strings"

	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
	log "github.com/sirupsen/logrus"
)

// includeConsumer reports whether a consumer is in scope for the run. With no
// consumer filter configured every consumer is included; otherwise the name
// must appear in the comma-separated allow-list.
func includeConsumer(consumer *ConsumerInfo, props Properties) bool {
	if !props.has(PropConsumerFilter) {
		return true
	}
	for _, name := range strings.Split(props.get(PropConsumerFilter), ",") {
		if strings.TrimSpace(name) == consumer.Name {
			return true
		}
	}
	return false
}

// includeInteraction applies the description and provider-state filters. Both
// must match when both are configured.
func includeInteraction(interaction *pact.Interaction, props Properties) bool {
	filterDescription := props.has(PropDescriptionFilter)
	filterState := props.has(PropStateFilter)

	switch {
	case filterDescription && filterState:
		return matchDescription(interaction, props.get(PropDescriptionFilter)) &&
			matchState(interaction, props.get(PropStateFilter))
	case filterDescription:
		return matchDescription(interaction, props.get(PropDescriptionFilter))
	case filterState:
		return matchState(interaction, props.get(PropStateFilter))
	}
	return true
}

func matchDescription(interaction *pact.Interaction, pattern string) bool {
	return match(pattern, interaction.Description)
}

// matchState matches the interaction's provider state against the filter. An
// interaction with no state matches only the empty pattern.
func matchState(interaction *pact.Interaction, pattern string) bool {
	if interaction.State == "" {
		return pattern == ""
	}
	return match(pattern, interaction.State)
}

func match(pattern, value string) bool {
	matched, err := regexp.MatchString(pattern, value)
	if err != nil {
		log.Warnf("invalid filter pattern '%s': %v", pattern, err)
		return false
	}
	return matched
}
