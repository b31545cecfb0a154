// Package matcher implements the segment trie that maps request paths to
// endpoint identifiers, together with its exact inverse, the URL builder.
//
// Templates are "/"-separated. A segment starting with ':' is a required
// parameter, and a parameter segment ending in '?' is optional. An optional
// segment may only appear last.
//
// Lookup is greedy: at every depth a static child beats the parameter child,
// and once a static edge is taken it is never revisited.
package matcher

import (
	"errors"
	"log/slog"

	"github.com/sjc5/dispatch/pkg/colorlog"
)

type (
	Params = map[string]string

	Match struct {
		Identifier string
		Params     Params
	}

	Options struct {
		ParamPrefixRune    rune // default ':'
		OptionalSuffixRune rune // default '?'

		// PermissiveParamNames lets a later template rename an existing
		// parameter edge instead of failing registration. A warning is logged
		// for every rename.
		PermissiveParamNames bool

		Logger *slog.Logger
	}
)

var (
	ErrOptionalNotLast = errors.New("optional parameter segment must be the last segment")
	ErrEmptyParamName  = errors.New("parameter segment has an empty name")
	ErrDuplicateParam  = errors.New("parameter name used more than once")
	ErrInvalidStatic   = errors.New("static segment contains the optional marker")
	ErrConflict        = errors.New("routing conflict")
	ErrFrozen          = errors.New("matcher is frozen")
	ErrMissingParam    = errors.New("missing required parameter")
)

type Matcher struct {
	paramPrefixRune    rune
	optionalSuffixRune rune
	permissive         bool
	log                *slog.Logger

	root   *segmentNode
	frozen bool
	count  int
}

func New(opts *Options) *Matcher {
	if opts == nil {
		opts = new(Options)
	}
	m := &Matcher{
		paramPrefixRune:    opts.ParamPrefixRune,
		optionalSuffixRune: opts.OptionalSuffixRune,
		permissive:         opts.PermissiveParamNames,
		log:                opts.Logger,
		root:               new(segmentNode),
	}
	if m.paramPrefixRune == 0 {
		m.paramPrefixRune = ':'
	}
	if m.optionalSuffixRune == 0 {
		m.optionalSuffixRune = '?'
	}
	if m.log == nil {
		m.log = colorlog.New("matcher")
	}
	return m
}

// Freeze makes the trie read-only. After Freeze, Match may be called from
// any number of goroutines without locking.
func (m *Matcher) Freeze() {
	m.frozen = true
}

func (m *Matcher) Frozen() bool {
	return m.frozen
}

// Len reports how many templates have been inserted. Inserting a path that
// already resolves to the same identifier is not counted again.
func (m *Matcher) Len() int {
	return m.count
}

// RegisterPattern parses template and inserts it under identifier.
func (m *Matcher) RegisterPattern(identifier, template string) ([]Segment, error) {
	segments, err := m.ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	if err := m.Insert(identifier, segments); err != nil {
		return nil, err
	}
	return segments, nil
}
