package clean

import "testing"

// idempotent asserts that for every cleaner c and every string x,
// c.Clean(c.Clean(x)) == c.Clean(x).
func idempotent(t *testing.T, c Cleaner, inputs []string) {
	t.Helper()
	for _, in := range inputs {
		once := c.Clean(in)
		twice := c.Clean(once)
		if once != twice {
			t.Fatalf("%s: not idempotent on %q: once=%q twice=%q", c.Name(), in, once, twice)
		}
	}
}

func TestIPACleanerIdempotent(t *testing.T) {
	idempotent(t, IPACleaner{}, []string{
		"/kæt/", "[kæt]", "  kæt  ", "", "kæt", "/  kæt   dɔɡ  /",
	})
}

func TestIPACleanerStripsBrackets(t *testing.T) {
	if got := (IPACleaner{}).Clean("/kæt/"); got != "kæt" {
		t.Fatalf("want kæt, got %q", got)
	}
}

func TestIPACleanerValidateEmptyOK(t *testing.T) {
	if !(IPACleaner{}).Validate("") {
		t.Fatal("empty IPA should validate")
	}
}

func TestIPACleanerValidateUnbalancedBrackets(t *testing.T) {
	if (IPACleaner{}).Validate("[kæt") {
		t.Fatal("unbalanced brackets should fail validation")
	}
}

func TestIPACleanerValidateRejectsSymbolNoise(t *testing.T) {
	if (IPACleaner{}).Validate("...---...") {
		t.Fatal("symbol-only noise should fail validation")
	}
}

func TestTextNormalizerIdempotent(t *testing.T) {
	n := NewTextNormalizer(DefaultTextNormalizerOpts)
	idempotent(t, n, []string{"Hello   World", "  ALL CAPS  ", "", "MixedCase Text"})
}

func TestTextNormalizerLowercases(t *testing.T) {
	n := NewTextNormalizer(TextNormalizerOpts{Lowercase: true})
	if got := n.Clean("HELLO"); got != "hello" {
		t.Fatalf("want hello, got %q", got)
	}
}

func TestTextNormalizerCollapsesWhitespace(t *testing.T) {
	n := NewTextNormalizer(TextNormalizerOpts{NormalizeWhitespace: true})
	if got := n.Clean("a    b\t\tc"); got != "a b c" {
		t.Fatalf("want %q, got %q", "a b c", got)
	}
}

func TestTextNormalizerRemovesPunctuation(t *testing.T) {
	n := NewTextNormalizer(TextNormalizerOpts{RemovePunctuation: true})
	if got := n.Clean("hello, world!"); got != "hello world" {
		t.Fatalf("want %q, got %q", "hello world", got)
	}
}

func TestHeadwordCleanerIdempotent(t *testing.T) {
	idempotent(t, HeadwordCleaner{}, []string{"cat*", "dog (archaic)", "  fish†  ", ""})
}

func TestHeadwordCleanerStripsMarkersAndParens(t *testing.T) {
	if got := (HeadwordCleaner{}).Clean("cat* (archaic)"); got != "cat" {
		t.Fatalf("want cat, got %q", got)
	}
}

func TestDefinitionCleanerIdempotent(t *testing.T) {
	d := DefinitionCleaner{MaxLength: 20}
	idempotent(t, d, []string{
		"a small domesticated feline [3]",
		"<b>bold</b> definition",
		"",
		"a very long definition that should be truncated at some word boundary",
	})
}

func TestDefinitionCleanerStripsCitationsAndTags(t *testing.T) {
	got := (DefinitionCleaner{}).Clean("a feline [3] <i>mammal</i>")
	if got != "a feline mammal" {
		t.Fatalf("want %q, got %q", "a feline mammal", got)
	}
}

func TestDefinitionCleanerTruncatesAtWordBoundary(t *testing.T) {
	d := DefinitionCleaner{MaxLength: 10}
	got := d.Clean("a small domesticated feline")
	if got != "a small..." {
		t.Fatalf("want %q, got %q", "a small...", got)
	}
}

func TestLanguageCodeCleanerIdempotent(t *testing.T) {
	idempotent(t, LanguageCodeCleaner{}, []string{"English", "en", "GERMAN", "xyz", ""})
}

func TestLanguageCodeCleanerMapsFullName(t *testing.T) {
	if got := (LanguageCodeCleaner{}).Clean("English"); got != "en" {
		t.Fatalf("want en, got %q", got)
	}
}

func TestLanguageCodeCleanerPassesThroughKnownCode(t *testing.T) {
	if got := (LanguageCodeCleaner{}).Clean("fr"); got != "fr" {
		t.Fatalf("want fr, got %q", got)
	}
}

func TestLanguageCodeCleanerValidateAcceptsISOCode(t *testing.T) {
	if !(LanguageCodeCleaner{}).Validate("en") {
		t.Fatal("en should validate as an ISO code")
	}
}

func TestLanguageCodeCleanerValidateRejectsUnmappedName(t *testing.T) {
	if (LanguageCodeCleaner{}).Validate("klingon") {
		t.Fatal("unmapped language name should fail validation")
	}
}
