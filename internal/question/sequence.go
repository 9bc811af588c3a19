package question

// Sequences are dense and 1-based within a questionnaire: after any
// mutation the set of values is exactly {1..N}.

// clampSequence bounds a requested insert position to [1, count+1].
func clampSequence(seq, count int) int {
	if seq < 1 {
		return 1
	}
	if seq > count+1 {
		return count + 1
	}
	return seq
}

// moveShift returns the inclusive range of neighboring sequences and the
// delta applied to them when a question moves from oldSeq to newSeq. The
// moved question itself is excluded by the caller.
func moveShift(oldSeq, newSeq int) (lo, hi, delta int) {
	if newSeq < oldSeq {
		// moving earlier: neighbors in [newSeq, oldSeq-1] slide up
		return newSeq, oldSeq - 1, +1
	}
	// moving later: neighbors in [oldSeq+1, newSeq] slide down
	return oldSeq + 1, newSeq, -1
}
