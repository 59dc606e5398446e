package clean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// --- IPA normalizer --------------------------------------------------

var (
	ipaBracketed  = regexp.MustCompile(`^[\[/](.*)[\]/]$`)
	ipaWhitespace = regexp.MustCompile(`\s+`)
)

// IPACleaner strips enclosing [...] or /.../, NFC-normalizes, collapses
// whitespace, and rejects (on Validate) transcriptions with unbalanced
// brackets or that are otherwise not segmentable.
type IPACleaner struct{}

func (IPACleaner) Name() string    { return "ipa_normalizer" }
func (IPACleaner) Version() string { return "1.0.0" }

func (IPACleaner) Clean(value string) string {
	v := strings.TrimSpace(value)
	for m := ipaBracketed.FindStringSubmatch(v); m != nil; m = ipaBracketed.FindStringSubmatch(v) {
		v = strings.TrimSpace(m[1])
	}
	v = norm.NFC.String(v)
	v = ipaWhitespace.ReplaceAllString(v, " ")
	return strings.TrimSpace(v)
}

func (IPACleaner) Validate(value string) bool {
	if value == "" {
		return true // empty IPA is permitted; absence is distinct from malformation
	}
	if !balancedBrackets(value) {
		return false
	}
	// Reject transcriptions that are purely numeric/symbolic noise with no
	// letter or IPA stress marker — not genuinely segmentable.
	hasLetterOrStress := false
	for _, r := range value {
		if unicode.IsLetter(r) || r == 'ˈ' || r == 'ˌ' {
			hasLetterOrStress = true
			break
		}
	}
	return hasLetterOrStress
}

func balancedBrackets(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// --- Text normalizer ---------------------------------------------------

// TextNormalizerOpts configures TextNormalizer as a typed options record
// rather than a grab-bag of boolean parameters.
type TextNormalizerOpts struct {
	Lowercase          bool
	RemovePunctuation  bool
	NormalizeWhitespace bool
	Form               norm.Form
}

// DefaultTextNormalizerOpts are the standard TextNormalizer defaults:
// lowercase + collapse whitespace, NFC form, keep punctuation.
var DefaultTextNormalizerOpts = TextNormalizerOpts{
	Lowercase:           true,
	NormalizeWhitespace: true,
	Form:                norm.NFC,
}

var punctuationStrip = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
var whitespaceCollapse = regexp.MustCompile(`\s+`)

// TextNormalizer applies Unicode normalization, optional case folding,
// optional punctuation stripping, and whitespace collapse.
type TextNormalizer struct {
	Opts TextNormalizerOpts
}

// NewTextNormalizer constructs a TextNormalizer with the given options.
func NewTextNormalizer(opts TextNormalizerOpts) TextNormalizer {
	if opts.Form == nil {
		opts.Form = norm.NFC
	}
	return TextNormalizer{Opts: opts}
}

func (TextNormalizer) Name() string    { return "text_normalizer" }
func (TextNormalizer) Version() string { return "1.0.0" }

func (t TextNormalizer) Clean(value string) string {
	v := value
	form := t.Opts.Form
	if form == nil {
		form = norm.NFC
	}
	v = form.String(v)
	if t.Opts.RemovePunctuation {
		v = punctuationStrip.ReplaceAllString(v, "")
	}
	if t.Opts.Lowercase {
		v = strings.ToLower(v)
	}
	if t.Opts.NormalizeWhitespace {
		v = strings.TrimSpace(whitespaceCollapse.ReplaceAllString(v, " "))
	}
	return v
}

func (TextNormalizer) Validate(string) bool { return true }

// --- Headword cleaner ---------------------------------------------------

var (
	headwordMarkers       = regexp.MustCompile(`[*†‡§¶]`)
	headwordParenthetical = regexp.MustCompile(`\([^)]*\)`)
)

// HeadwordCleaner removes lexicographic markers and parenthesized
// material, NFC-composes, and collapses whitespace.
type HeadwordCleaner struct{}

func (HeadwordCleaner) Name() string    { return "headword_cleaner" }
func (HeadwordCleaner) Version() string { return "1.0.0" }

func (HeadwordCleaner) Clean(value string) string {
	v := headwordParenthetical.ReplaceAllString(value, "")
	v = headwordMarkers.ReplaceAllString(v, "")
	v = norm.NFC.String(v)
	v = whitespaceCollapse.ReplaceAllString(v, " ")
	return strings.TrimSpace(v)
}

func (HeadwordCleaner) Validate(string) bool { return true }

// --- Definition cleaner ---------------------------------------------------

var (
	definitionCitation = regexp.MustCompile(`\[\d+\]`)
	definitionHTMLTag   = regexp.MustCompile(`<[^>]+>`)
)

// DefinitionCleaner strips bracketed numeric citations and HTML tags,
// collapses whitespace, and optionally caps length with a word-boundary
// ellipsis.
type DefinitionCleaner struct {
	// MaxLength, if > 0, truncates the definition to at most MaxLength
	// runes on a word boundary, appending "...".
	MaxLength int
}

func (DefinitionCleaner) Name() string    { return "definition_cleaner" }
func (DefinitionCleaner) Version() string { return "1.0.0" }

func (d DefinitionCleaner) Clean(value string) string {
	// Repeat until stable: removing one citation or tag can expose another
	// (e.g. "[1[2]]").
	v := value
	for {
		next := definitionHTMLTag.ReplaceAllString(definitionCitation.ReplaceAllString(v, ""), "")
		if next == v {
			break
		}
		v = next
	}
	v = strings.TrimSpace(whitespaceCollapse.ReplaceAllString(v, " "))
	if d.MaxLength > 0 {
		v = truncateAtWordBoundary(v, d.MaxLength)
	}
	return v
}

func (DefinitionCleaner) Validate(string) bool { return true }

func truncateAtWordBoundary(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	// Already the output of an earlier truncation (at most maxLen runes
	// plus the ellipsis): leave it alone so Clean stays idempotent.
	if strings.HasSuffix(s, "...") && len(runes)-3 <= maxLen {
		return s
	}
	cut := runes[:maxLen]
	if idx := strings.LastIndexByte(string(cut), ' '); idx > 0 {
		cut = []rune(string(cut)[:idx])
	}
	return strings.TrimSpace(string(cut)) + "..."
}

// --- Language-code cleaner ---------------------------------------------------

// languageNameToCode maps full language names (lowercase) to ISO-639
// codes.
var languageNameToCode = map[string]string{
	"english":                "en",
	"german":                 "de",
	"french":                 "fr",
	"spanish":                "es",
	"italian":                "it",
	"portuguese":             "pt",
	"russian":                "ru",
	"polish":                 "pl",
	"latin":                  "la",
	"greek":                  "grc",
	"ancient greek":          "grc",
	"sanskrit":               "sa",
	"hindi":                  "hi",
	"persian":                "fa",
	"dutch":                  "nl",
	"swedish":                "sv",
	"norwegian":              "no",
	"danish":                 "da",
	"icelandic":              "is",
	"proto-indo-european":    "pie",
}

var isoCodePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

// LanguageCodeCleaner maps a small table of language names to ISO-639
// codes; inputs already matching [a-z]{2,3} pass through; anything else is
// lowercased.
type LanguageCodeCleaner struct{}

func (LanguageCodeCleaner) Name() string    { return "language_code_cleaner" }
func (LanguageCodeCleaner) Version() string { return "1.0.0" }

func (LanguageCodeCleaner) Clean(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if code, ok := languageNameToCode[v]; ok {
		return code
	}
	return v
}

func (LanguageCodeCleaner) Validate(value string) bool {
	return isoCodePattern.MatchString(value)
}
