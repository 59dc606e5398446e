package clean

import "testing"

func TestFactoryFullEntryPipelinesHasAllFields(t *testing.T) {
	pipelines := Factory{}.FullEntryPipelines()
	for _, field := range []string{"headword", "ipa", "definition", "language"} {
		if _, ok := pipelines[field]; !ok {
			t.Fatalf("missing pipeline for field %q", field)
		}
	}
}

func TestFactoryForDefinitionsHonorsMaxLength(t *testing.T) {
	f := Factory{DefinitionMaxLength: 10}
	p := f.ForDefinitions()
	got, _, err := p.Apply(1, "a small domesticated feline", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) > 13 {
		t.Fatalf("expected truncated definition, got %q", got)
	}
}

func TestFactoryForIPAIsStrict(t *testing.T) {
	p := Factory{}.ForIPA()
	if _, _, err := p.Apply(1, "[unbalanced", false); err == nil {
		t.Fatal("expected strict IPA pipeline to reject unbalanced brackets")
	}
}

func TestFactoryForLanguageCodesIsStrict(t *testing.T) {
	p := Factory{}.ForLanguageCodes()
	if _, _, err := p.Apply(1, "not a language", false); err == nil {
		t.Fatal("expected strict language-code pipeline to reject an unmapped name")
	}
}
