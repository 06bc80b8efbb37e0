// Package nlu provides the natural-language understanding front of wxbot:
// a deterministic entity parser (location, datetime, units) and a TF-IDF
// intent classifier trained from YAML example corpora. Remote LLM-backed
// classifier variants live in the openai and anthropic sub-packages; all of
// them satisfy core.Classifier so the wiring layer can swap backends at
// startup.
package nlu
