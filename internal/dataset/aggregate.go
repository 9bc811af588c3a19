package dataset

import (
	"sort"
	"strings"

	"formlens/internal/question"
)

// Batch is one submission: all answers sharing a code, ordered by the
// answering question's sequence.
type Batch struct {
	Code    int      `json:"code"`
	Answers []Answer `json:"answers"`
}

// QuestionStats is the per-question value histogram across all batches.
type QuestionStats struct {
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Multiselect bool           `json:"multiselect,omitempty"`
	Histogram   map[string]int `json:"statistics"`
}

// GroupAnswers buckets answers by batch code and orders each bucket by
// question sequence. Answers whose question no longer exists are dropped:
// schemas may evolve after data was collected, and orphaned answers are
// simply not displayable.
func GroupAnswers(answers []Answer, questions []question.Question) []Batch {
	sequenceByKey := make(map[string]int, len(questions))
	for _, q := range questions {
		sequenceByKey[q.Key] = q.Sequence
	}

	grouped := make(map[int][]Answer)
	for _, a := range answers {
		if _, live := sequenceByKey[a.QuestionKey]; !live {
			continue
		}
		grouped[a.Code] = append(grouped[a.Code], a)
	}

	codes := make([]int, 0, len(grouped))
	for code := range grouped {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	batches := make([]Batch, 0, len(codes))
	for _, code := range codes {
		group := grouped[code]
		sort.SliceStable(group, func(i, j int) bool {
			return sequenceByKey[group[i].QuestionKey] < sequenceByKey[group[j].QuestionKey]
		})
		batches = append(batches, Batch{Code: code, Answers: group})
	}
	return batches
}

// AggregateStatistics computes one histogram per question. Free-text
// questions count literal values; select questions pre-seed every option
// at zero and count occurrences, splitting multi-select values into
// individual tokens. Tokens outside the option set are ignored. An empty
// answer set yields empty histograms matching the schema shape.
func AggregateStatistics(questions []question.Question, batches []Batch) []QuestionStats {
	stats := make([]QuestionStats, 0, len(questions))
	indexByKey := make(map[string]int, len(questions))
	for _, q := range questions {
		entry := QuestionStats{
			Type:      q.Type,
			Label:     q.Label,
			Histogram: make(map[string]int),
		}
		if detail, ok := q.Detail.(question.SelectDetail); ok {
			entry.Multiselect = detail.Multiselect
			for _, opt := range detail.Options {
				entry.Histogram[opt.Value] = 0
			}
		}
		indexByKey[q.Key] = len(stats)
		stats = append(stats, entry)
	}

	for _, batch := range batches {
		for _, a := range batch.Answers {
			idx, live := indexByKey[a.QuestionKey]
			if !live || a.Value == nil {
				continue
			}
			value := *a.Value
			if strings.TrimSpace(value) == "" {
				continue
			}

			entry := &stats[idx]
			switch {
			case entry.Type == question.TypeInput:
				entry.Histogram[value]++
			case entry.Multiselect:
				for _, token := range strings.Split(value, multiValueDelimiter) {
					if _, known := entry.Histogram[token]; known {
						entry.Histogram[token]++
					}
				}
			default:
				if _, known := entry.Histogram[value]; known {
					entry.Histogram[value]++
				}
			}
		}
	}
	return stats
}
