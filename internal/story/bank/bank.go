package bank

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Level is an ordinal difficulty tier. It keys both the vocabulary set and
// the difficulty policy.
type Level string

// Policy is the pair of structural ceilings for one level. Both are hard
// caps; a story exceeding either is invalid regardless of vocabulary.
type Policy struct {
	MaxTokens    int `yaml:"max_tokens" json:"max_tokens"`
	MaxSentences int `yaml:"max_sentences" json:"max_sentences"`
}

// Bank holds the closed per-level vocabulary sets and policies. It is plain
// injected data: callers construct one (Default, Load, New) and pass it to
// the validator and generator.
type Bank struct {
	words    map[Level]map[string]struct{}
	policies map[Level]Policy
	levels   []Level
}

func New(words map[Level][]string, policies map[Level]Policy) (*Bank, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("word bank has no levels")
	}
	b := &Bank{
		words:    make(map[Level]map[string]struct{}, len(words)),
		policies: make(map[Level]Policy, len(policies)),
	}
	for level, list := range words {
		if strings.TrimSpace(string(level)) == "" {
			return nil, fmt.Errorf("word bank has an empty level name")
		}
		policy, ok := policies[level]
		if !ok {
			return nil, fmt.Errorf("level %s has no difficulty policy", level)
		}
		if policy.MaxTokens <= 0 || policy.MaxSentences <= 0 {
			return nil, fmt.Errorf("level %s policy caps must be positive (max_tokens=%d max_sentences=%d)", level, policy.MaxTokens, policy.MaxSentences)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("level %s has an empty vocabulary", level)
		}
		set := make(map[string]struct{}, len(list))
		for _, w := range list {
			w = strings.TrimSpace(w)
			if w == "" {
				return nil, fmt.Errorf("level %s contains an empty word", level)
			}
			if w != strings.ToLower(w) {
				return nil, fmt.Errorf("level %s word %q must be lowercase", level, w)
			}
			set[w] = struct{}{}
		}
		b.words[level] = set
		b.policies[level] = policy
		b.levels = append(b.levels, level)
	}
	sort.Slice(b.levels, func(i, j int) bool { return b.levels[i] < b.levels[j] })
	return b, nil
}

// Valid reports whether the level is a member of the known level set.
func (b *Bank) Valid(level Level) bool {
	_, ok := b.words[level]
	return ok
}

// Levels returns the known levels in ascending order.
func (b *Bank) Levels() []Level {
	out := make([]Level, len(b.levels))
	copy(out, b.levels)
	return out
}

// Contains reports whether word (already normalized) is in the level's
// vocabulary.
func (b *Bank) Contains(level Level, word string) bool {
	set, ok := b.words[level]
	if !ok {
		return false
	}
	_, ok = set[word]
	return ok
}

// Words returns the level's vocabulary sorted ascending, for prompt
// rendering and API listings.
func (b *Bank) Words(level Level) []string {
	set, ok := b.words[level]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func (b *Bank) PolicyFor(level Level) (Policy, bool) {
	p, ok := b.policies[level]
	return p, ok
}

type fileLevel struct {
	Words        []string `yaml:"words"`
	MaxTokens    int      `yaml:"max_tokens"`
	MaxSentences int      `yaml:"max_sentences"`
}

type file struct {
	Levels map[Level]fileLevel `yaml:"levels"`
}

// Load parses a YAML word bank document:
//
//	levels:
//	  A:
//	    words: [boy, girl, dog]
//	    max_tokens: 40
//	    max_sentences: 3
func Load(raw []byte) (*Bank, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse word bank yaml: %w", err)
	}
	words := make(map[Level][]string, len(f.Levels))
	policies := make(map[Level]Policy, len(f.Levels))
	for level, entry := range f.Levels {
		words[level] = entry.Words
		policies[level] = Policy{MaxTokens: entry.MaxTokens, MaxSentences: entry.MaxSentences}
	}
	return New(words, policies)
}

func LoadFile(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word bank file: %w", err)
	}
	return Load(raw)
}
