package ui

// Feed keeps the most recent DJ activity lines.
type Feed struct {
	size  int
	lines []string
}

// NewFeed creates a feed holding at most size lines. A size below one keeps ten.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = 10
	}
	return &Feed{size: size}
}

// Add appends lines, dropping the oldest once the feed is full.
func (f *Feed) Add(lines ...string) {
	f.lines = append(f.lines, lines...)
	if over := len(f.lines) - f.size; over > 0 {
		f.lines = append([]string(nil), f.lines[over:]...)
	}
}

// Lines returns the retained lines, oldest first.
func (f *Feed) Lines() []string {
	return f.lines
}

// Len reports how many lines are retained.
func (f *Feed) Len() int {
	return len(f.lines)
}
