package textalign

// OpTag classifies a contiguous alignment span.
type OpTag string

const (
	OpEqual   OpTag = "equal"
	OpReplace OpTag = "replace"
	OpDelete  OpTag = "delete"
	OpInsert  OpTag = "insert"
)

// Span is one maximal contiguous region of the alignment. The reference
// ranges of all spans partition the reference sequence in order with no gaps
// or overlaps; likewise the spoken ranges.
type Span struct {
	Tag         OpTag `json:"tag"`
	RefStart    int   `json:"ref_start"`
	RefEnd      int   `json:"ref_end"`
	SpokenStart int   `json:"spoken_start"`
	SpokenEnd   int   `json:"spoken_end"`
}

type match struct {
	refIdx    int
	spokenIdx int
	size      int
}

// matchSpans computes the edit script between two token sequences using the
// classic longest-matching-block diff: repeatedly find the longest common
// block (earliest position on ties), recurse into the regions on either side,
// then classify the gaps between matches. Deterministic for fixed inputs.
func matchSpans(ref, spoken []string) []Span {
	// Index spoken token -> positions, so candidate matches are found without
	// scanning the whole spoken sequence per reference token.
	spokenIdx := make(map[string][]int, len(spoken))
	for j, tok := range spoken {
		spokenIdx[tok] = append(spokenIdx[tok], j)
	}

	matches := matchingBlocks(ref, spoken, spokenIdx)

	spans := make([]Span, 0, len(matches)*2)
	i, j := 0, 0
	for _, m := range matches {
		var tag OpTag
		switch {
		case i < m.refIdx && j < m.spokenIdx:
			tag = OpReplace
		case i < m.refIdx:
			tag = OpDelete
		case j < m.spokenIdx:
			tag = OpInsert
		}
		if tag != "" {
			spans = append(spans, Span{Tag: tag, RefStart: i, RefEnd: m.refIdx, SpokenStart: j, SpokenEnd: m.spokenIdx})
		}
		i, j = m.refIdx+m.size, m.spokenIdx+m.size
		if m.size > 0 {
			spans = append(spans, Span{Tag: OpEqual, RefStart: m.refIdx, RefEnd: i, SpokenStart: m.spokenIdx, SpokenEnd: j})
		}
	}
	return spans
}

// matchingBlocks returns the maximal matching blocks in order, terminated by
// a zero-size sentinel at (len(ref), len(spoken)). Adjacent blocks are merged.
func matchingBlocks(ref, spoken []string, spokenIdx map[string][]int) []match {
	type region struct{ refLo, refHi, spokenLo, spokenHi int }

	queue := []region{{0, len(ref), 0, len(spoken)}}
	var found []match

	for len(queue) > 0 {
		r := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(ref, spoken, spokenIdx, r.refLo, r.refHi, r.spokenLo, r.spokenHi)
		if m.size == 0 {
			continue
		}
		found = append(found, m)
		if r.refLo < m.refIdx && r.spokenLo < m.spokenIdx {
			queue = append(queue, region{r.refLo, m.refIdx, r.spokenLo, m.spokenIdx})
		}
		if m.refIdx+m.size < r.refHi && m.spokenIdx+m.size < r.spokenHi {
			queue = append(queue, region{m.refIdx + m.size, r.refHi, m.spokenIdx + m.size, r.spokenHi})
		}
	}

	sortMatches(found)

	// Merge adjacent blocks, then terminate with the sentinel.
	merged := make([]match, 0, len(found)+1)
	for _, m := range found {
		if n := len(merged); n > 0 &&
			merged[n-1].refIdx+merged[n-1].size == m.refIdx &&
			merged[n-1].spokenIdx+merged[n-1].size == m.spokenIdx {
			merged[n-1].size += m.size
			continue
		}
		merged = append(merged, m)
	}
	return append(merged, match{refIdx: len(ref), spokenIdx: len(spoken)})
}

// longestMatch finds the longest block of equal tokens within the given
// region. Ties are broken toward the earliest reference position, then the
// earliest spoken position, which keeps the overall alignment deterministic.
func longestMatch(ref, spoken []string, spokenIdx map[string][]int, refLo, refHi, spokenLo, spokenHi int) match {
	best := match{refIdx: refLo, spokenIdx: spokenLo}

	// runLen[j] is the length of the match ending at (i-1, j) from the
	// previous iteration of i.
	runLen := make(map[int]int)
	for i := refLo; i < refHi; i++ {
		newRun := make(map[int]int)
		for _, j := range spokenIdx[ref[i]] {
			if j < spokenLo {
				continue
			}
			if j >= spokenHi {
				break
			}
			k := runLen[j-1] + 1
			newRun[j] = k
			if k > best.size {
				best = match{refIdx: i - k + 1, spokenIdx: j - k + 1, size: k}
			}
		}
		runLen = newRun
	}
	return best
}

// sortMatches orders matches by reference index. Insertion sort: the block
// count is small and the input is already nearly ordered.
func sortMatches(ms []match) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && ms[j].refIdx < ms[j-1].refIdx; j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}
