package domain

import (
	"fmt"
	"regexp"
	"strings"

	goaway "github.com/TwiN/go-away"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultCodeAlphabet leaves out vowels and look-alike characters
	// (0/O, 1/l/I) so generated codes are easy to read and never spell words.
	DefaultCodeAlphabet = "23456789bcdfghjkmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ"
	DefaultCodeLength   = 7
	DefaultMaxAttempts  = 5

	MinCustomCodeLength = 3
	MaxCustomCodeLength = 16
)

var customCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// DefaultReservedCodes collide with routes or read as system pages.
var DefaultReservedCodes = []string{
	"admin", "administrator", "api", "app", "auth", "clicks", "dashboard",
	"docs", "health", "help", "links", "login", "logout", "metrics",
	"register", "root", "settings", "signup", "static", "stats", "support",
	"system", "www",
}

// DefaultDenylist holds terms no code may contain on top of the profanity
// dictionary: abuse-adjacent words the dictionary does not cover.
var DefaultDenylist = []string{
	"nazi", "porn", "xxx", "phish", "malware",
}

// maxAlphabetLength is the largest alphabet nanoid accepts.
const maxAlphabetLength = 255

// CodeGenerator produces random short codes.
type CodeGenerator struct {
	alphabet string
	length   int
}

// NewCodeGenerator returns a generator; zero values fall back to the defaults.
func NewCodeGenerator(alphabet string, length int) *CodeGenerator {
	if alphabet == "" {
		alphabet = DefaultCodeAlphabet
	}
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &CodeGenerator{alphabet: alphabet, length: length}
}

// ValidateAlphabet rejects alphabets whose codes could never be looked up:
// every character must be one a code may contain.
func ValidateAlphabet(alphabet string) error {
	if alphabet == "" {
		return nil
	}
	if len(alphabet) > maxAlphabetLength {
		return fmt.Errorf("%w: code alphabet is longer than %d characters", ErrValidation, maxAlphabetLength)
	}
	if !customCodeRegex.MatchString(alphabet) {
		return fmt.Errorf("%w: code alphabet may only contain letters, digits, '-' and '_'", ErrValidation)
	}
	return nil
}

// Generate returns a new random code of the configured length.
func (g *CodeGenerator) Generate() (string, error) {
	return gonanoid.Generate(g.alphabet, g.length)
}

// Length is the length of every generated code.
func (g *CodeGenerator) Length() int {
	return g.length
}

// Alphabet is the set of characters generated codes are drawn from.
func (g *CodeGenerator) Alphabet() string {
	return g.alphabet
}

// CodeRules validates user-chosen codes and screens generated ones.
type CodeRules struct {
	minLength int
	maxLength int
	reserved  map[string]struct{}
	denylist  []string
	profanity *goaway.ProfanityDetector
}

// NewCodeRules builds the rules. Nil word lists use the defaults.
func NewCodeRules(minLength, maxLength int, reserved, denylist []string) *CodeRules {
	if minLength <= 0 {
		minLength = MinCustomCodeLength
	}
	if maxLength <= 0 {
		maxLength = MaxCustomCodeLength
	}
	if reserved == nil {
		reserved = DefaultReservedCodes
	}
	if denylist == nil {
		denylist = DefaultDenylist
	}

	r := &CodeRules{
		minLength: minLength,
		maxLength: maxLength,
		reserved:  make(map[string]struct{}, len(reserved)),
		denylist:  make([]string, 0, len(denylist)),
		profanity: goaway.NewProfanityDetector(),
	}
	for _, w := range reserved {
		r.reserved[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range denylist {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			r.denylist = append(r.denylist, w)
		}
	}
	return r
}

// ValidateCustom checks a user-provided code for length, alphabet, reserved
// words and denylisted terms.
func (r *CodeRules) ValidateCustom(code string) error {
	if err := validation.Validate(code,
		validation.Required.Error("custom code is required"),
		validation.RuneLength(r.minLength, r.maxLength).Error(fmt.Sprintf("custom code must be %d-%d characters", r.minLength, r.maxLength)),
		validation.Match(customCodeRegex).Error("custom code may only contain letters, digits, '-' and '_'"),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return r.CheckAllowed(code)
}

// CheckAllowed rejects reserved words, profanity (including leetspeak
// spellings) and codes containing denylisted terms.
func (r *CodeRules) CheckAllowed(code string) error {
	lower := strings.ToLower(code)
	if _, ok := r.reserved[lower]; ok {
		return fmt.Errorf("%w: %q is a reserved word", ErrValidation, code)
	}
	if r.profanity.IsProfane(lower) {
		return fmt.Errorf("%w: custom code contains a disallowed term", ErrValidation)
	}
	for _, term := range r.denylist {
		if strings.Contains(lower, term) {
			return fmt.Errorf("%w: custom code contains a disallowed term", ErrValidation)
		}
	}
	return nil
}

// MaybeCode reports whether s could be a stored code at all. Redirects for
// anything else are answered without touching the cache or the store.
func (r *CodeRules) MaybeCode(s string, generatedLength int) bool {
	if s == "" {
		return false
	}
	maxLen := r.maxLength
	if generatedLength > maxLen {
		maxLen = generatedLength
	}
	return len(s) <= maxLen && customCodeRegex.MatchString(s)
}
