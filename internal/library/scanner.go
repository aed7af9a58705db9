package library

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/MimeLyc/videochop/internal/errs"
	"github.com/MimeLyc/videochop/pkg/file"
	"github.com/MimeLyc/videochop/pkg/log"
)

// DefaultPlaceholder stands for one digit of the episode number.
const DefaultPlaceholder = 'N'

type matcherOptions struct {
	placeholder rune
	collision   CollisionPolicy
}

type Option func(*matcherOptions)

func WithPlaceholder(r rune) Option {
	return func(o *matcherOptions) {
		o.placeholder = r
	}
}

func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(o *matcherOptions) {
		o.collision = p
	}
}

// Matcher pairs files in one directory by the key a pattern extracts
// from their names.
type Matcher struct {
	pattern   *regexp.Regexp
	collision CollisionPolicy
}

// NewMatcher compiles pattern. Each placeholder character matches one
// digit; everything else is literal and matching ignores case.
func NewMatcher(pattern string, opts ...Option) (*Matcher, error) {
	options := matcherOptions{
		placeholder: DefaultPlaceholder,
		collision:   CollisionFail,
	}
	for _, opt := range opts {
		opt(&options)
	}

	re, err := CompilePattern(pattern, options.placeholder)
	if err != nil {
		return nil, err
	}
	return &Matcher{pattern: re, collision: options.collision}, nil
}

// CompilePattern turns "Show.S01ENN" into (?i)Show\.S01E\d\d.
func CompilePattern(pattern string, placeholder rune) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errs.New(errs.KindMatch, "empty file pattern")
	}

	var b strings.Builder
	b.WriteString("(?i)")
	found := false
	for _, r := range pattern {
		if r == placeholder {
			b.WriteString(`\d`)
			found = true
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	if !found {
		return nil, errs.Newf(errs.KindMatch, "pattern %q has no %q placeholder", pattern, placeholder)
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, errs.Wrap(err, errs.KindMatch, "compile file pattern").WithContext("pattern", pattern)
	}
	return re, nil
}

// Key extracts the lower-cased key from a file name, or "" when the
// name does not match.
func (m *Matcher) Key(name string) string {
	return strings.ToLower(m.pattern.FindString(name))
}

// Match lists dir and returns key -> path for every file of class whose
// name matches.
func (m *Matcher) Match(dir string, class ExtensionClass) (map[string]string, error) {
	paths, err := file.ListRegular(dir)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindMatch, "list source directory").WithContext("dir", dir)
	}
	return m.MatchPaths(paths, class)
}

// MatchPaths is Match over an explicit listing. The listing is sorted
// first so the result does not depend on its order.
func (m *Matcher) MatchPaths(paths []string, class ExtensionClass) (map[string]string, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)

	ret := make(map[string]string)
	for _, path := range sorted {
		if !slices.Contains(class.Extensions, file.Ext(path)) {
			continue
		}
		key := m.Key(filepath.Base(path))
		if key == "" {
			continue
		}

		if prev, ok := ret[key]; ok {
			if m.collision == CollisionFail {
				return nil, errs.Newf(errs.KindAmbiguousKey, "two %s files share key %q", class.Name, key).
					WithContext("first", prev).
					WithContext("second", path)
			}
			log.Warn("Key %q: %s replaces %s (last-wins)", key, filepath.Base(path), filepath.Base(prev))
		}
		ret[key] = path
	}
	return ret, nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
