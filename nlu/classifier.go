package nlu

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wxbot/wxbot/core"
)

// Example is one labeled training utterance.
type Example struct {
	Text   string
	Intent string
}

// LoadExamples reads a YAML corpus of the form
//
//	intents:
//	  get_forecast:
//	    - "what's the forecast for tomorrow"
//	  get_alerts:
//	    - "any weather alerts"
//
// returning normalized examples ready for Fit.
func LoadExamples(path string) ([]Example, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nlu corpus: %w", err)
	}
	return parseExamples(raw)
}

func parseExamples(raw []byte) ([]Example, error) {
	var doc struct {
		Intents map[string][]string `yaml:"intents"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse nlu corpus: %w", err)
	}
	var examples []Example
	for intent, samples := range doc.Intents {
		for _, s := range samples {
			examples = append(examples, Example{Text: normalize(s), Intent: intent})
		}
	}
	return examples, nil
}

var reNonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
var reSpaces = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokenize emits unigrams and bigrams of the normalized text. Bigrams let
// phrasings like "right now" and "this weekend" carry weight.
func tokenize(s string) []string {
	words := strings.Fields(normalize(s))
	tokens := make([]string, 0, len(words)*2)
	tokens = append(tokens, words...)
	for i := 0; i+1 < len(words); i++ {
		tokens = append(tokens, words[i]+" "+words[i+1])
	}
	return tokens
}

// ClassifierOptions configure a TfidfClassifier.
type ClassifierOptions struct {
	// Temperature scales the softmax over centroid similarities. Values
	// below 1 sharpen the confidence distribution.
	Temperature float64
}

// TfidfClassifier assigns intents by cosine similarity between the TF-IDF
// vector of the utterance and per-intent centroid vectors built at Fit time.
// Confidence is a temperature-scaled softmax over the similarities. The
// classifier is immutable after Fit and safe for concurrent use.
type TfidfClassifier struct {
	opts      ClassifierOptions
	vocab     map[string]int
	idf       []float64
	intents   []string // sorted, index-aligned with centroids
	centroids [][]float64
	trained   bool
}

var _ core.Classifier = (*TfidfClassifier)(nil)

// NewTfidfClassifier constructs an untrained classifier; call Fit before
// Classify.
func NewTfidfClassifier(optFns ...func(o *ClassifierOptions)) *TfidfClassifier {
	opts := ClassifierOptions{Temperature: 0.75}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Temperature < 1e-3 {
		opts.Temperature = 1e-3
	}
	return &TfidfClassifier{opts: opts}
}

// Fit builds the vocabulary, IDF weights and per-intent centroids from the
// labeled examples.
func (c *TfidfClassifier) Fit(examples []Example) error {
	if len(examples) == 0 {
		return fmt.Errorf("fit: no training examples")
	}

	c.vocab = make(map[string]int)
	docTokens := make([][]string, len(examples))
	df := []int{}
	for i, ex := range examples {
		tokens := tokenize(ex.Text)
		docTokens[i] = tokens
		seen := map[string]bool{}
		for _, tok := range tokens {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			idx, ok := c.vocab[tok]
			if !ok {
				idx = len(c.vocab)
				c.vocab[tok] = idx
				df = append(df, 0)
			}
			df[idx]++
		}
	}

	n := float64(len(examples))
	c.idf = make([]float64, len(df))
	for i, d := range df {
		c.idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	sums := map[string][]float64{}
	counts := map[string]int{}
	for i, ex := range examples {
		vec := c.vectorize(docTokens[i])
		if sums[ex.Intent] == nil {
			sums[ex.Intent] = make([]float64, len(c.vocab))
		}
		for j, v := range vec {
			sums[ex.Intent][j] += v
		}
		counts[ex.Intent]++
	}

	c.intents = make([]string, 0, len(sums))
	for intent := range sums {
		c.intents = append(c.intents, intent)
	}
	sort.Strings(c.intents)

	c.centroids = make([][]float64, len(c.intents))
	for i, intent := range c.intents {
		centroid := sums[intent]
		for j := range centroid {
			centroid[j] /= float64(counts[intent])
		}
		l2normalize(centroid)
		c.centroids[i] = centroid
	}

	c.trained = true
	return nil
}

// Classify returns the best-matching intent and its confidence in [0,1].
func (c *TfidfClassifier) Classify(_ context.Context, text string) (core.Prediction, error) {
	if !c.trained {
		return core.Prediction{}, fmt.Errorf("classifier not trained, call Fit first")
	}

	vec := c.vectorize(tokenize(text))
	sims := make([]float64, len(c.centroids))
	for i, centroid := range c.centroids {
		for j, v := range vec {
			sims[i] += v * centroid[j]
		}
	}

	probs := softmax(sims, c.opts.Temperature)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return core.Prediction{Intent: c.intents[best], Confidence: probs[best]}, nil
}

// vectorize builds a normalized TF-IDF vector over the trained vocabulary.
// Out-of-vocabulary tokens are dropped.
func (c *TfidfClassifier) vectorize(tokens []string) []float64 {
	vec := make([]float64, len(c.vocab))
	for _, tok := range tokens {
		if idx, ok := c.vocab[tok]; ok {
			vec[idx] += c.idf[idx]
		}
	}
	l2normalize(vec)
	return vec
}

func l2normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}

func softmax(scores []float64, temperature float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp((s - maxScore) / temperature)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
