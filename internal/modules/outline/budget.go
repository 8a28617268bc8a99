package outline

// SlideBudget returns how many content slides to request for a deck of n
// slides. With a table of contents, positions are reserved for the TOC pages
// even though the generator never emits them:
//
//	tocPages = ceil((n-1)/10)
//	budget   = n - ceil((n-tocPages)/10)
func SlideBudget(n int, includeTOC bool) int {
	if !includeTOC {
		return n
	}
	tocPages := ceilDiv(n-1, 10)
	return n - ceilDiv(n-tocPages, 10)
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}
