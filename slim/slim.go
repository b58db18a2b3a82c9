// Package slim maps every term of an ontology onto the most specific members
// of a small, curator-chosen subset of terms (a "slim").
//
// A term T maps to slim term S when S is an ancestor of T, or T itself,
// under the requested relation types. When two slim terms both apply and one
// is an ancestor of the other, only the more specific one is kept; unrelated
// slim terms are all kept.
package slim

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/nodeadmin/ontoslim/ontology"
)

type options struct {
	types    []ontology.RelationType
	typesSet bool
	workers  int
	logger   *slog.Logger
}

// Option configures Create.
type Option func(*options)

// WithRelationTypes sets the relation types slimming follows. When this
// option is not given, ontology.DefaultSlimRelations apply; giving it with
// no types is rejected as an invalid request.
func WithRelationTypes(types ...ontology.RelationType) Option {
	return func(o *options) {
		o.types = types
		o.typesSet = true
	}
}

// WithWorkers bounds the number of goroutines used to compute vertex
// closures. Zero or less uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// request is a validated, normalized slimming request.
type request struct {
	slimSet []string
	types   []ontology.RelationType
	options
}

func newRequest(slimSet []string, opts []Option) (request, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if len(slimSet) == 0 {
		return request{}, fmt.Errorf("%w: slim set is empty", ErrInvalidSlimRequest)
	}
	types := ontology.DefaultSlimRelations
	if o.typesSet {
		if len(o.types) == 0 {
			return request{}, fmt.Errorf("%w: relation types given but empty", ErrInvalidSlimRequest)
		}
		types = o.types
	}
	for _, rt := range types {
		if !rt.Valid() {
			return request{}, fmt.Errorf("%w: relation type %d", ErrInvalidSlimRequest, uint8(rt))
		}
	}

	seen := make(map[string]struct{}, len(slimSet))
	terms := make([]string, 0, len(slimSet))
	for _, id := range slimSet {
		id = strings.TrimSpace(id)
		if id == "" {
			return request{}, fmt.Errorf("%w: empty term id in slim set", ErrInvalidSlimRequest)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		terms = append(terms, id)
	}
	return request{slimSet: terms, types: slices.Clone(types), options: o}, nil
}

func (r request) key(namespace string) string {
	return namespace + "|" + strings.Join(r.slimSet, ",") + "|" + ontology.CanonicalCodes(r.types)
}

// RequestKey returns the key Create would give the resulting Map, without
// computing it. Two requests with the same key produce identical maps over
// the same graph.
func RequestKey(namespace string, slimSet []string, opts ...Option) (string, error) {
	r, err := newRequest(slimSet, opts)
	if err != nil {
		return "", err
	}
	return r.key(namespace), nil
}

// Create computes the slim map of every vertex in g onto slimSet.
//
// Algorithm:
//
//  1. Index the slim set; slim term i gets bit i.
//  2. exclude[i] is the set of slim terms that are strict ancestors of slim
//     term i.
//  3. For each vertex T, anc is the set of slim terms in T's closure
//     (including T). Indices excluded by a remaining member are removed
//     until nothing changes. What remains, in slim set order, is T's mapping.
//
// Vertices with no slim ancestor are absent from the map.
func Create(g *ontology.Graph, slimSet []string, opts ...Option) (*Map, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: ontology graph is nil", ErrInvalidSlimRequest)
	}
	req, err := newRequest(slimSet, opts)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	index := make(map[string]uint, len(req.slimSet))
	for i, id := range req.slimSet {
		index[id] = uint(i)
	}
	n := uint(len(req.slimSet))

	ancestorsInSlim := func(id string) *bitset.BitSet {
		set := bitset.New(n)
		for v := range g.AncestorGraph([]string{id}, nil, req.types...).Vertices {
			if i, ok := index[v]; ok {
				set.Set(i)
			}
		}
		return set
	}

	exclude := make([]*bitset.BitSet, n)
	forEachParallel(int(n), req.workers, func(i int) {
		set := ancestorsInSlim(req.slimSet[i])
		set.Clear(uint(i))
		exclude[i] = set
	})

	vertices := g.Vertices()
	mapped := make([][]string, len(vertices))
	forEachParallel(len(vertices), req.workers, func(i int) {
		anc := ancestorsInSlim(vertices[i])
		if anc.None() {
			return
		}
		mapped[i] = req.terms(mostSpecific(anc, exclude))
	})

	m := &Map{
		namespace: g.Namespace(),
		slimSet:   req.slimSet,
		types:     req.types,
		key:       req.key(g.Namespace()),
		mappings:  make(map[string][]string, len(vertices)/4),
	}
	for i, terms := range mapped {
		if terms != nil {
			m.mappings[vertices[i]] = terms
		}
	}

	req.logger.Debug("created slim map",
		slog.String("namespace", m.namespace),
		slog.Int("slim_terms", len(m.slimSet)),
		slog.String("relations", ontology.CanonicalCodes(m.types)),
		slog.Int("vertices", len(vertices)),
		slog.Int("mapped", len(m.mappings)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return m, nil
}

// mostSpecific removes from anc every slim index that is an ancestor of
// another index still present, repeating until a fixed point. A cycle among
// slim terms would exclude all its members; the last non-empty set is kept.
func mostSpecific(anc *bitset.BitSet, exclude []*bitset.BitSet) *bitset.BitSet {
	cur := anc
	for round := uint(0); round <= anc.Len(); round++ {
		excluded := bitset.New(anc.Len())
		for j, ok := cur.NextSet(0); ok; j, ok = cur.NextSet(j + 1) {
			excluded.InPlaceUnion(exclude[j])
		}
		next := anc.Difference(excluded)
		if next.Equal(cur) || next.None() {
			return cur
		}
		cur = next
	}
	return cur
}

func (r request) terms(set *bitset.BitSet) []string {
	out := make([]string, 0, set.Count())
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out = append(out, r.slimSet[i])
	}
	return out
}
