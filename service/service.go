// Package service routes ancestor, descendant, path and slimming queries to
// the published ontology graph that owns each term's namespace.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/nodeadmin/ontoslim/ontology"
	"github.com/nodeadmin/ontoslim/slim"
)

// DefaultCacheSize is the number of slim maps kept when no size is given.
const DefaultCacheSize = 32

type options struct {
	cacheSize int
	pathLimit int
	workers   int
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*options)

// WithCacheSize sets how many slim maps are cached. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithPathLimit caps the paths returned per query.
func WithPathLimit(n int) Option {
	return func(o *options) { o.pathLimit = n }
}

// WithWorkers sets the worker count used for slimming.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider sets where query spans are recorded. Without it the
// global otel provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp.Tracer(tracerName) }
}

// Service holds published graphs and a cache of slim maps. It is safe for
// concurrent use.
type Service struct {
	opts   options
	logger *slog.Logger

	mu     sync.RWMutex
	graphs map[string]*ontology.Graph

	cacheMu sync.Mutex
	cache   *lru.Cache
	flight  singleflight.Group
}

// New creates an empty Service.
func New(opts ...Option) *Service {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	s := &Service{
		opts:   o,
		logger: o.logger,
		graphs: make(map[string]*ontology.Graph),
	}
	if o.cacheSize > 0 {
		s.cache = lru.New(o.cacheSize)
	}
	return s
}

// Register publishes g under its namespace. Each namespace is registered once.
func (s *Service) Register(g *ontology.Graph) error {
	if g == nil {
		return fmt.Errorf("%w: nil graph", ErrUnknownOntology)
	}
	ns := g.Namespace()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[ns]; ok {
		return fmt.Errorf("%w: %s", ErrOntologyExists, ns)
	}
	s.graphs[ns] = g

	s.logger.Info("registered ontology",
		slog.String("namespace", ns),
		slog.Int("vertices", g.VertexCount()),
		slog.Int("edges", g.EdgeCount()),
	)
	return nil
}

// Graph returns the graph registered for namespace.
func (s *Service) Graph(namespace string) (*ontology.Graph, error) {
	s.mu.RLock()
	g, ok := s.graphs[namespace]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOntology, namespace)
	}
	return g, nil
}

// Namespaces lists registered namespaces, sorted.
func (s *Service) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.graphs))
	for ns := range s.graphs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// graphFor returns the graph owning id's namespace. Ids from namespaces
// that are not registered are unknown terms, not errors.
func (s *Service) graphFor(id string, span trace.Span) (*ontology.Graph, bool) {
	ns := ontology.Namespace(id)
	s.mu.RLock()
	g, ok := s.graphs[ns]
	s.mu.RUnlock()
	if !ok {
		span.AddEvent("unknown_namespace", trace.WithAttributes(attribute.String("namespace", ns)))
	}
	return g, ok
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span, func()) {
	ctx, span := s.opts.tracer.Start(ctx, "Service."+op, trace.WithAttributes(attrs...))
	begin := time.Now()
	return ctx, span, func() {
		QueryDuration.WithLabelValues(op).Observe(time.Since(begin).Seconds())
		span.End()
	}
}

func typesAttr(types []ontology.RelationType) attribute.KeyValue {
	return attribute.String("relations", ontology.CanonicalCodes(types))
}

// Ancestors returns id and all its ancestors under types, sorted. Ids that
// no registered ontology knows yield an empty slice.
func (s *Service) Ancestors(ctx context.Context, id string, types ...ontology.RelationType) ([]string, error) {
	_, span, end := s.start(ctx, "Ancestors", attribute.String("id", id), typesAttr(types))
	defer end()

	g, ok := s.graphFor(id, span)
	if !ok {
		return []string{}, nil
	}
	out := g.Ancestors(id, types...)
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

// Descendants returns id and all its descendants under types, sorted.
func (s *Service) Descendants(ctx context.Context, id string, types ...ontology.RelationType) ([]string, error) {
	_, span, end := s.start(ctx, "Descendants", attribute.String("id", id), typesAttr(types))
	defer end()

	g, ok := s.graphFor(id, span)
	if !ok {
		return []string{}, nil
	}
	out := g.Descendants(id, types...)
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

// AncestorGraph returns the closure of id together with the edges walked.
func (s *Service) AncestorGraph(ctx context.Context, id string, types ...ontology.RelationType) (*ontology.AncestorGraph, error) {
	_, span, end := s.start(ctx, "AncestorGraph", attribute.String("id", id), typesAttr(types))
	defer end()

	g, ok := s.graphFor(id, span)
	if !ok || !g.HasVertex(id) {
		return ontology.Closure(nil, nil, nil), nil
	}
	return g.AncestorGraph([]string{id}, nil, types...), nil
}

// Paths returns the parent-directed paths from one term to another. Both
// terms must belong to the same ontology; otherwise there is no path.
func (s *Service) Paths(ctx context.Context, from, to string, types ...ontology.RelationType) ([][]ontology.Edge, error) {
	_, span, end := s.start(ctx, "Paths",
		attribute.String("from", from),
		attribute.String("to", to),
		typesAttr(types),
	)
	defer end()

	g, ok := s.graphFor(from, span)
	if !ok || ontology.Namespace(to) != g.Namespace() {
		return [][]ontology.Edge{}, nil
	}
	paths := g.Paths(from, to, s.opts.pathLimit, types...)
	span.SetAttributes(attribute.Int("result_count", len(paths)))
	return paths, nil
}

// InferredRelations returns the combined relations from id to each ancestor.
func (s *Service) InferredRelations(ctx context.Context, id string, types ...ontology.RelationType) ([]ontology.Edge, error) {
	_, span, end := s.start(ctx, "InferredRelations", attribute.String("id", id), typesAttr(types))
	defer end()

	g, ok := s.graphFor(id, span)
	if !ok {
		return []ontology.Edge{}, nil
	}
	return g.InferredRelations(id, types...), nil
}

// CreateSlims builds, or returns from cache, the slim map of the ontology
// registered for ontologyType. Concurrent identical requests share a
// single computation.
func (s *Service) CreateSlims(ctx context.Context, ontologyType string, slimSet []string, opts ...slim.Option) (*slim.Map, error) {
	ctx, span, end := s.start(ctx, "CreateSlims",
		attribute.String("namespace", ontologyType),
		attribute.Int("slim_terms", len(slimSet)),
	)
	defer end()

	g, err := s.Graph(ontologyType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	opts = append([]slim.Option{slim.WithWorkers(s.opts.workers), slim.WithLogger(s.logger)}, opts...)
	key, err := slim.RequestKey(ontologyType, slimSet, opts...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("key", key))

	if m, ok := s.cached(key); ok {
		SlimCacheTotal.WithLabelValues("hit").Inc()
		span.AddEvent("cache_hit")
		return m, nil
	}

	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		SlimCacheTotal.WithLabelValues("miss").Inc()
		m, err := slim.Create(g, slimSet, opts...)
		if err != nil {
			return nil, err
		}
		s.store(key, m)
		return m, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if shared {
		SlimCacheTotal.WithLabelValues("shared").Inc()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := v.(*slim.Map)
	span.SetAttributes(attribute.Int("mapped", m.Len()))
	return m, nil
}

// FindSlimmedToTerms returns the slim terms id reduces to in m.
func (s *Service) FindSlimmedToTerms(m *slim.Map, id string) []string {
	if m == nil {
		return []string{}
	}
	return m.FindSlimmedToTerms(id)
}

func (s *Service) cached(key string) (*slim.Map, bool) {
	if s.cache == nil {
		return nil, false
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*slim.Map), true
}

func (s *Service) store(key string, m *slim.Map) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	s.cache.Add(key, m)
	s.cacheMu.Unlock()
}
