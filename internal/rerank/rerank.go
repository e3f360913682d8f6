// Package rerank hosts the cross-encoder reranking collaborator behind a
// request/response message channel.
//
// Reranking is expensive (a model call scoring every (query, passage) pair
// jointly) and the backend is typically single-instance. The Service
// therefore runs scoring on a dedicated worker goroutine; callers submit one
// batch request and suspend until the matching response arrives. There is no
// partial or streaming reply. A slow or failed rerank is never fatal to the
// caller: every error path here is designed to be degraded into
// similarity-only ordering upstream.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mossbase/moss/internal/knowledge"
	"github.com/mossbase/moss/internal/log"
)

// DefaultTimeout bounds a single rerank round trip.
const DefaultTimeout = 15 * time.Second

// ErrStopped is returned for requests submitted after Stop.
var ErrStopped = errors.New("rerank service stopped")

// Scored is a candidate with its cross-encoder relevance score in [0, 1].
type Scored struct {
	knowledge.Candidate
	Score float64 `json:"rerankScore"`
}

// Scorer scores a batch of candidates against a query.
type Scorer interface {
	Score(ctx context.Context, query string, candidates []knowledge.Candidate) ([]Scored, error)
}

// request pairs one batch job with its private reply channel.
type request struct {
	query      string
	candidates []knowledge.Candidate
	reply      chan response
}

type response struct {
	results []Scored
	err     error
}

// Service runs a Scorer on a worker goroutine and mediates access to it via
// message passing. Safe for concurrent use; requests are processed one at a
// time to bound load on the scoring backend.
type Service struct {
	scorer   Scorer
	timeout  time.Duration
	logger   log.Logger
	requests chan request

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewService creates a rerank service. timeout <= 0 selects DefaultTimeout.
func NewService(scorer Scorer, timeout time.Duration, logger log.Logger) (*Service, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		scorer:   scorer,
		timeout:  timeout,
		logger:   logger,
		requests: make(chan request),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the worker goroutine. Must be called exactly once.
func (s *Service) Start() {
	go s.run()
}

// Stop shuts the worker down and waits for it to exit. In-flight and
// subsequent requests fail with ErrStopped; callers degrade to similarity
// ordering. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

// run is the worker loop: one batch at a time, each bounded by the service
// timeout so a wedged backend cannot block the queue forever.
func (s *Service) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case req := <-s.requests:
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			results, err := s.scorer.Score(ctx, req.query, req.candidates)
			cancel()
			if err != nil {
				s.logger.Warn("rerank batch failed",
					"candidates", len(req.candidates), "error", err)
			}
			req.reply <- response{results: results, err: err}
		}
	}
}

// Rerank submits one batch and blocks until its response, the context, or
// service shutdown. The response order is unspecified; callers re-sort.
func (s *Service) Rerank(ctx context.Context, query string, candidates []knowledge.Candidate) ([]Scored, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	req := request{
		query:      query,
		candidates: candidates,
		reply:      make(chan response, 1),
	}

	select {
	case s.requests <- req:
	case <-s.stop:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.results, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
