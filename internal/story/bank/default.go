package bank

// Default returns the reference eight-level bank. Levels accumulate
// vocabulary monotonically here, though nothing downstream relies on that.
func Default() *Bank {
	base := []string{"boy", "girl", "dog", "cat", "see", "run", "happy", "today"}
	grow := func(extra ...string) []string {
		out := make([]string, 0, len(base)+len(extra))
		out = append(out, base...)
		return append(out, extra...)
	}
	words := map[Level][]string{
		"A": grow(),
		"B": grow("school", "friend"),
		"C": grow("school", "friend", "house", "play"),
		"D": grow("school", "friend", "house", "play", "yesterday", "park"),
		"E": grow("school", "friend", "house", "play", "yesterday", "park", "finish", "want"),
		"F": grow("school", "friend", "house", "play", "yesterday", "park", "finish", "want", "ask", "help"),
		"G": grow("school", "friend", "house", "play", "yesterday", "park", "finish", "want", "ask", "help", "because"),
		"H": grow("school", "friend", "house", "play", "yesterday", "park", "finish", "want", "ask", "help", "because", "before", "after"),
	}
	policies := map[Level]Policy{
		"A": {MaxTokens: 40, MaxSentences: 3},
		"B": {MaxTokens: 50, MaxSentences: 4},
		"C": {MaxTokens: 60, MaxSentences: 5},
		"D": {MaxTokens: 70, MaxSentences: 5},
		"E": {MaxTokens: 80, MaxSentences: 6},
		"F": {MaxTokens: 90, MaxSentences: 6},
		"G": {MaxTokens: 100, MaxSentences: 7},
		"H": {MaxTokens: 110, MaxSentences: 7},
	}
	b, err := New(words, policies)
	if err != nil {
		panic(err)
	}
	return b
}
