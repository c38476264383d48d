/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package events

import (
	"regexp"
	"strings"
	"sync"
)

const redactedValue = "***"

// secretKeyPattern matches field names that carry sensitive values
var secretKeyPattern = regexp.MustCompile(`(?i)(pass|password|token|secret|key)`)

// Redactor masks sensitive values out of events before they reach any
// subscriber. Field values are redacted by key name; message text is scanned
// for literal credential values registered with AddSecret.
type Redactor struct {
	mu      sync.RWMutex
	secrets []string
}

// NewRedactor returns an empty Redactor
func NewRedactor() *Redactor {
	return &Redactor{}
}

// AddSecret registers a literal credential value (e.g. a password read from
// the configuration) to be masked out of any free-text message
func (r *Redactor) AddSecret(value string) {
	if value == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secrets = append(r.secrets, value)
}

// Redact returns a copy of the event with sensitive field values masked
func (r *Redactor) Redact(e Event) Event {
	if len(e.Fields) > 0 {
		fields := make(map[string]interface{}, len(e.Fields))
		for k, v := range e.Fields {
			if secretKeyPattern.MatchString(k) {
				fields[k] = redactedValue
				continue
			}
			if s, ok := v.(string); ok {
				fields[k] = r.redactText(s)
				continue
			}
			fields[k] = v
		}
		e.Fields = fields
	}
	return e
}

func (r *Redactor) redactText(text string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, secret := range r.secrets {
		if secret == "" {
			continue
		}
		text = strings.ReplaceAll(text, secret, redactedValue)
	}
	return text
}
