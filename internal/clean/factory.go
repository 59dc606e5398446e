package clean

// Factory builds the standard per-field pipelines used by the cleaning
// stage.
type Factory struct {
	// DefinitionMaxLength configures the definition pipeline's truncation;
	// 0 disables truncation.
	DefinitionMaxLength int
}

// ForHeadwords builds the headword pipeline: strip markers/parentheticals,
// then lowercase and normalize (non-strict — headwords tolerate empty after
// cleaning, the quality gate decides admission).
func (Factory) ForHeadwords() Pipeline {
	return New(false,
		HeadwordCleaner{},
		NewTextNormalizer(TextNormalizerOpts{Lowercase: true, NormalizeWhitespace: true}),
	)
}

// ForIPA builds the strict IPA pipeline.
func (Factory) ForIPA() Pipeline {
	return New(true, IPACleaner{})
}

// ForDefinitions builds the definition pipeline (case preserved).
func (f Factory) ForDefinitions() Pipeline {
	return New(false,
		DefinitionCleaner{MaxLength: f.DefinitionMaxLength},
		NewTextNormalizer(TextNormalizerOpts{NormalizeWhitespace: true}),
	)
}

// ForLanguageCodes builds the strict language-code pipeline.
func (Factory) ForLanguageCodes() Pipeline {
	return New(true, LanguageCodeCleaner{})
}

// FullEntryPipelines returns the complete per-field pipeline set for a
// dictionary entry, keyed by field name.
func (f Factory) FullEntryPipelines() map[string]Pipeline {
	return map[string]Pipeline{
		"headword":   f.ForHeadwords(),
		"ipa":        f.ForIPA(),
		"definition": f.ForDefinitions(),
		"language":   f.ForLanguageCodes(),
	}
}
