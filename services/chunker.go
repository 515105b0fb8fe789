package services

import "math"

// EstimateTokens converts text length into an estimated token count using a
// conservative ~4 chars per token heuristic. Always at least 1 for non-empty
// text.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / 4.0))
}

// ChunkBatch is a token-bounded group of review texts prepared for one API
// call. Overlap counts how many leading items were carried from the previous
// batch for context continuity.
type ChunkBatch struct {
	Texts           []string
	EstimatedTokens int
	Overlap         int
}

// ChunkTexts greedily groups texts into batches whose estimated token count
// stays under ceiling. When overlap > 0, each new batch is seeded with the
// last overlap items of the previous one (summarization use; structured
// extraction passes 0). A single item over the ceiling rides alone rather
// than being split further.
func ChunkTexts(texts []string, ceiling, overlap int) []ChunkBatch {
	if len(texts) == 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	var batches []ChunkBatch
	current := ChunkBatch{}

	close := func() {
		if len(current.Texts) == 0 {
			return
		}
		batches = append(batches, current)

		next := ChunkBatch{}
		if overlap > 0 {
			carry := current.Texts
			if len(carry) > overlap {
				carry = carry[len(carry)-overlap:]
			}
			next.Texts = append(next.Texts, carry...)
			next.Overlap = len(carry)
			for _, t := range carry {
				next.EstimatedTokens += EstimateTokens(t)
			}
		}
		current = next
	}

	for _, t := range texts {
		cost := EstimateTokens(t)
		if len(current.Texts) > current.Overlap && current.EstimatedTokens+cost > ceiling {
			close()
		}
		current.Texts = append(current.Texts, t)
		current.EstimatedTokens += cost
	}
	if len(current.Texts) > current.Overlap {
		batches = append(batches, current)
	}
	return batches
}
