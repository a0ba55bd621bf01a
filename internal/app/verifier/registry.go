package verifier

import (
	"regexp"
	"sync"

	log "github.com/sirupsen/logrus"
)

// VerificationFunc produces the actual outcome for one interaction
// description: a *ProviderResponse for request/response pacts, or the message
// payload (raw bytes or a JSON-marshallable value) for message pacts.
type VerificationFunc func() (interface{}, error)

// VerificationMethod is one registered provider-side entry point.
type VerificationMethod struct {
	Name        string
	Description string
	Invoke      VerificationFunc
}

// MethodRegistry maps interaction descriptions to the provider methods that
// fulfil them. The host application populates it at startup.
type MethodRegistry struct {
	mu      sync.RWMutex
	methods map[string][]VerificationMethod
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: map[string][]VerificationMethod{}}
}

func (r *MethodRegistry) Register(name, description string, fn VerificationFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[description] = append(r.methods[description], VerificationMethod{
		Name:        name,
		Description: description,
		Invoke:      fn,
	})
}

// Find returns the methods registered for a description, scoped to the given
// include patterns. With no patterns every registered method matches.
func (r *MethodRegistry) Find(description string, includePatterns []string) []VerificationMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []VerificationMethod
	for _, method := range r.methods[description] {
		if matchesPatterns(method.Name, includePatterns) {
			found = append(found, method)
		}
	}
	return found
}

func matchesPatterns(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		matched, err := regexp.MatchString(pattern, name)
		if err != nil {
			log.Warnf("invalid include pattern '%s': %v", pattern, err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
