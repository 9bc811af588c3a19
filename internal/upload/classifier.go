package upload

import (
	"math"
	"strconv"
	"strings"
)

// multiValueDelimiter separates the tokens of a multi-select cell.
const multiValueDelimiter = ", "

// Kind is the inferred column type. The -multi suffix marks a
// multi-select column; Base strips it back to the question type tag.
type Kind string

const (
	KindInput       Kind = "InputType"
	KindSelect      Kind = "SelectType"
	KindSelectMulti Kind = "SelectType-multi"
)

func (k Kind) Base() string {
	return strings.TrimSuffix(string(k), "-multi")
}

func (k Kind) Multi() bool {
	return k == KindSelectMulti
}

// Thresholds holds the classifier's tuning constants. The defaults are
// carried over verbatim from the tuned heuristic; there is no derivation
// behind them beyond observed behavior, so changing any of them changes
// how columns are typed.
type Thresholds struct {
	// MeanFrequencyMax is the highest mean repetition of distinct
	// integer tokens still treated as free numeric input.
	MeanFrequencyMax float64
	// NearDuplicateRatioMin is the fraction of near-identical value
	// pairs above which a text column is a closed single-select set.
	NearDuplicateRatioMin float64
	// MeanSimilarityMin is the mean pairwise similarity above which a
	// text column is treated as multi-select.
	MeanSimilarityMin float64
	// NearDuplicateEpsilon bounds how far from 1.0 a similarity may be
	// while still counting as a near-duplicate pair.
	NearDuplicateEpsilon float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MeanFrequencyMax:      1.5,
		NearDuplicateRatioMin: 0.25,
		MeanSimilarityMin:     0.4,
		NearDuplicateEpsilon:  0.01,
	}
}

type Classification struct {
	Kind     Kind
	Required bool
}

// ClassifyColumn decides whether one column's data cells represent a
// free-text question, a single-select question, or a multi-select
// question. Empty cells are excluded from the statistics but clear the
// required flag. Columns too degenerate to classify fall back to
// InputType.
func ClassifyColumn(cells []Cell, th Thresholds) Classification {
	values := make([]string, 0, len(cells))
	required := true
	for _, c := range cells {
		if !c.Valid {
			required = false
			continue
		}
		values = append(values, c.Value)
	}

	if len(values) < 2 {
		return Classification{Kind: KindInput, Required: required && len(values) > 0}
	}

	tokenized := make([][]string, len(values))
	pool := make([]string, 0, len(values))
	for i, v := range values {
		tokenized[i] = strings.Split(v, multiValueDelimiter)
		pool = append(pool, tokenized[i]...)
	}

	if allIntegers(pool) {
		return Classification{Kind: classifyNumeric(tokenized, pool, th), Required: required}
	}
	return Classification{Kind: classifyText(values, th), Required: required}
}

func classifyNumeric(tokenized [][]string, pool []string, th Thresholds) Kind {
	for _, tokens := range tokenized {
		if len(tokens) > 1 {
			return KindSelectMulti
		}
	}

	distinct := make(map[string]struct{}, len(pool))
	for _, t := range pool {
		distinct[t] = struct{}{}
	}
	meanFrequency := float64(len(pool)) / float64(len(distinct))
	if meanFrequency <= th.MeanFrequencyMax {
		return KindInput
	}
	return KindSelect
}

func classifyText(values []string, th Thresholds) Kind {
	vectors, ok := tfidfVectors(values)
	if !ok {
		// Nothing tokenizable in the column; treat as free text.
		return KindInput
	}

	n := len(vectors)
	var sum float64
	var nearDuplicates, pairs int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sim := dot(vectors[i], vectors[j])
			sum += sim
			if i < j {
				pairs++
				if math.Abs(sim-1) <= th.NearDuplicateEpsilon {
					nearDuplicates++
				}
			}
		}
	}

	meanSimilarity := sum / float64(n*n)
	nearDuplicateRatio := float64(nearDuplicates) / float64(pairs)

	// Repeated near-identical strings imply a closed option set; broad
	// but moderate overlap implies multi-valued free selections.
	switch {
	case nearDuplicateRatio >= th.NearDuplicateRatioMin:
		return KindSelect
	case meanSimilarity >= th.MeanSimilarityMin:
		return KindSelectMulti
	default:
		return KindInput
	}
}

// tfidfVectors computes L2-normalized TF-IDF vectors for the given
// documents, with smoothed inverse document frequency. Returns false when
// the vocabulary is empty.
func tfidfVectors(docs []string) ([]map[string]float64, bool) {
	n := len(docs)
	termCounts := make([]map[string]float64, n)
	docFrequency := make(map[string]int)
	for i, doc := range docs {
		counts := make(map[string]float64)
		for _, term := range tokenizeWords(doc) {
			counts[term]++
		}
		for term := range counts {
			docFrequency[term]++
		}
		termCounts[i] = counts
	}
	if len(docFrequency) == 0 {
		return nil, false
	}

	idf := make(map[string]float64, len(docFrequency))
	for term, df := range docFrequency {
		idf[term] = math.Log(float64(1+n)/float64(1+df)) + 1
	}

	vectors := make([]map[string]float64, n)
	for i, counts := range termCounts {
		vec := make(map[string]float64, len(counts))
		var norm float64
		for term, tf := range counts {
			w := tf * idf[term]
			vec[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, true
}

func tokenizeWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		isWord := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') ||
			r > 127
		return !isWord
	})
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, w := range a {
		sum += w * b[term]
	}
	return sum
}

func allIntegers(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, err := strconv.Atoi(strings.TrimSpace(t)); err != nil {
			return false
		}
	}
	return true
}
