package nlu

import _ "embed"

//go:embed data/nlu.yml
var builtinCorpus []byte

// BuiltinExamples returns the bundled training corpus, used when no
// external corpus path is configured.
func BuiltinExamples() ([]Example, error) {
	return parseExamples(builtinCorpus)
}
