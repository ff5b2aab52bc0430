// Package cardpolicy holds the switch that decides whether the fake gateway
// accepts a card number. The switch is read on every call, so tests can flip
// it between requests.
package cardpolicy

import (
	"slices"
	"sync"
)

// DefaultValidCards are the gateway's published sandbox card numbers.
var DefaultValidCards = []string{
	"4111111111111111",
	"4005519200000004",
	"4009348888881881",
	"4012000033330026",
	"4012000077777777",
	"4012888888881881",
	"4217651111111119",
	"4500600000000061",
	"5555555555554444",
	"378282246310005",
	"371449635398431",
	"6011111111111117",
	"3530111333300000",
}

// Settings are the two policy flags. DeclineAll takes precedence over
// VerifyAll; with neither set every card is accepted.
type Settings struct {
	DeclineAll bool `json:"decline_all"`
	VerifyAll  bool `json:"verify_all"`
}

// Mode names the active policy.
func (s Settings) Mode() string {
	switch {
	case s.DeclineAll:
		return "decline_all"
	case s.VerifyAll:
		return "verify_all"
	default:
		return "accept_all"
	}
}

// Policy is the live validation switch.
type Policy struct {
	mu       sync.RWMutex
	settings Settings
	initial  Settings
	valid    map[string]struct{}
}

// New creates a policy with the given starting flags and allow-list. An empty
// allow-list falls back to DefaultValidCards.
func New(settings Settings, validCards []string) *Policy {
	if len(validCards) == 0 {
		validCards = DefaultValidCards
	}
	valid := make(map[string]struct{}, len(validCards))
	for _, n := range validCards {
		valid[n] = struct{}{}
	}
	return &Policy{settings: settings, initial: settings, valid: valid}
}

// Valid reports whether number passes the active policy. A nil number only
// passes in accept-all mode.
func (p *Policy) Valid(number *string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.settings.DeclineAll {
		return false
	}
	if p.settings.VerifyAll {
		if number == nil {
			return false
		}
		_, ok := p.valid[*number]
		return ok
	}
	return true
}

// Settings returns the active flags.
func (p *Policy) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// Set replaces the active flags.
func (p *Policy) Set(s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
}

// Reset restores the flags the policy was created with.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = p.initial
}

// ValidCards returns the allow-list in sorted order.
func (p *Policy) ValidCards() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.valid))
	for n := range p.valid {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
