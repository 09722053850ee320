// Package classifier holds what the location classifier backends share: the
// prompt, answer sanitizing and call metrics.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/pkg/metrics"
)

// Providers accepted by the application config.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ErrEmptyAnswer is returned when a backend answers with no usable token.
var ErrEmptyAnswer = errors.New("classifier returned an empty answer")

// Prompt builds the single-location instruction sent to every backend.
func Prompt(loc string) string {
	return fmt.Sprintf(`Extract the US state from this location: '%s'
Return only the state name with no spaces (e.g. 'NewYork', 'California', 'Texas').
For District of Columbia return 'DistrictOfColumbia' (not 'DC' or 'Washington').
If no state is found return 'Unknown'.
Examples:
- 'New York, NY' -> 'NewYork'
- 'Los Angeles, CA' -> 'California'
- 'South Carolina' -> 'SouthCarolina'
- 'Washington, DC' -> 'DistrictOfColumbia'
- 'District of Columbia' -> 'DistrictOfColumbia'
- 'DC' -> 'DistrictOfColumbia'`, loc)
}

// Sanitize reduces a model reply to a single token: first line only, quotes,
// punctuation and whitespace removed.
func Sanitize(answer string) (string, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(answer), "\n")
	var b strings.Builder
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyAnswer
	}
	return b.String(), nil
}

// Instrumented records call counts and latency for a backend.
type Instrumented struct {
	provider string
	next     location.Classifier
}

// Instrument wraps c so every call is counted under provider.
func Instrument(provider string, c location.Classifier) *Instrumented {
	return &Instrumented{provider: provider, next: c}
}

// Classify implements location.Classifier.
func (c *Instrumented) Classify(ctx context.Context, loc string) (string, error) {
	start := time.Now()
	v, err := c.next.Classify(ctx, loc)
	metrics.RecordClassifierLatency(c.provider, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordClassifierCall(c.provider, "error")
		metrics.RecordErrorByComponent("classifier", c.provider)
		return "", err
	}
	metrics.RecordClassifierCall(c.provider, "ok")
	return v, nil
}
