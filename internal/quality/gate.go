// Package quality implements the Quality Gate: a composable, ordered
// list of named rules deciding whether a CanonicalRecord is admitted to
// the clean corpus.
package quality

import (
	"regexp"
	"unicode/utf8"

	"github.com/lexigraph/lexigraph/internal/clean"
	"github.com/lexigraph/lexigraph/internal/domain"
)

// Field extracts the string value a rule checks from a CanonicalRecord.
type Field func(domain.CanonicalRecord) string

// Field accessors for the standard CanonicalRecord columns, for callers
// assembling custom gates out of the rule constructors below.
func HeadwordField(r domain.CanonicalRecord) string   { return r.Headword }
func DefinitionField(r domain.CanonicalRecord) string { return r.Definition }
func IPAField(r domain.CanonicalRecord) string        { return r.IPA }
func LanguageField(r domain.CanonicalRecord) string   { return r.Language }

// Rule is a single named admission predicate.
type Rule interface {
	Name() string
	Check(domain.CanonicalRecord) bool
}

// Gate is an ordered list of rules; a record is admitted only if every
// rule passes. Rejection increments a caller-tracked "skipped" counter and
// is logged at debug level by the orchestrator, not by the gate itself.
type Gate struct {
	rules []Rule
}

// New constructs a Gate from the given rules, evaluated in order.
func New(rules ...Rule) Gate {
	rs := make([]Rule, len(rules))
	copy(rs, rules)
	return Gate{rules: rs}
}

// Admit reports whether r passes every rule, and if not, the name of the
// first rule that rejected it.
func (g Gate) Admit(r domain.CanonicalRecord) (bool, string) {
	for _, rule := range g.rules {
		if !rule.Check(r) {
			return false, rule.Name()
		}
	}
	return true, ""
}

// --- required-field ---------------------------------------------------

type requiredField struct {
	field Field
	name  string
}

// RequiredField rejects records whose field, read by get, is empty.
func RequiredField(name string, get Field) Rule {
	return requiredField{field: get, name: name}
}

func (r requiredField) Name() string { return "required-field:" + r.name }
func (r requiredField) Check(rec domain.CanonicalRecord) bool {
	return r.field(rec) != ""
}

// --- min-length / max-length ---------------------------------------------------

type minLength struct {
	field Field
	name  string
	min   int
}

// MinLength rejects records whose field has fewer than min runes.
func MinLength(name string, get Field, min int) Rule {
	return minLength{field: get, name: name, min: min}
}

func (r minLength) Name() string { return "min-length:" + r.name }
func (r minLength) Check(rec domain.CanonicalRecord) bool {
	return utf8.RuneCountInString(r.field(rec)) >= r.min
}

type maxLength struct {
	field Field
	name  string
	max   int
}

// MaxLength rejects records whose field has more than max runes.
func MaxLength(name string, get Field, max int) Rule {
	return maxLength{field: get, name: name, max: max}
}

func (r maxLength) Name() string { return "max-length:" + r.name }
func (r maxLength) Check(rec domain.CanonicalRecord) bool {
	return utf8.RuneCountInString(r.field(rec)) <= r.max
}

// --- regex-match ---------------------------------------------------

type regexMatch struct {
	field   Field
	name    string
	pattern *regexp.Regexp
}

// RegexMatch rejects records whose field does not match pattern.
func RegexMatch(name string, get Field, pattern *regexp.Regexp) Rule {
	return regexMatch{field: get, name: name, pattern: pattern}
}

func (r regexMatch) Name() string { return "regex-match:" + r.name }
func (r regexMatch) Check(rec domain.CanonicalRecord) bool {
	return r.pattern.MatchString(r.field(rec))
}

// --- ipa-well-formed ---------------------------------------------------

type ipaWellFormed struct{}

// IPAWellFormed rejects records whose IPA field fails the IPA cleaner's
// own well-formedness check, reusing internal/clean.IPACleaner.Validate
// rather than duplicating the bracket/segmentability logic.
func IPAWellFormed() Rule { return ipaWellFormed{} }

func (ipaWellFormed) Name() string { return "ipa-well-formed" }
func (ipaWellFormed) Check(rec domain.CanonicalRecord) bool {
	return clean.IPACleaner{}.Validate(rec.IPA)
}

// --- language-code-known ---------------------------------------------------

type languageCodeKnown struct{}

// LanguageCodeKnown rejects records whose language field does not have
// the ISO-639 shape of 2-3 lowercase letters; the code is not looked up in
// any list of assigned codes.
func LanguageCodeKnown() Rule { return languageCodeKnown{} }

func (languageCodeKnown) Name() string { return "language-code-known" }
func (languageCodeKnown) Check(rec domain.CanonicalRecord) bool {
	return clean.LanguageCodeCleaner{}.Validate(rec.Language)
}

// DefaultMinDefinitionLength is the default minimum definition length in
// runes.
const DefaultMinDefinitionLength = 5

// Default is the default admission rule: headword non-empty AND definition
// non-empty AND len(definition) >= minDefinitionLength. A
// minDefinitionLength <= 0 falls back to DefaultMinDefinitionLength.
func Default(minDefinitionLength int) Gate {
	if minDefinitionLength <= 0 {
		minDefinitionLength = DefaultMinDefinitionLength
	}
	return New(
		RequiredField("headword", HeadwordField),
		RequiredField("definition", DefinitionField),
		MinLength("definition", DefinitionField, minDefinitionLength),
	)
}
