// Package locserv implements the Location Service: resolving a
// destination address unknown to the location table by buffering the
// packet, broadcasting a Location Service Request, and releasing the
// buffer on a matching reply or dropping it on retry exhaustion (§4.5).
package locserv

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/veloce-go/geonet/pktbuf"
	"github.com/veloce-go/geonet/wire"
)

// DefaultRetryInterval and DefaultMaxRetries match the fixed retry
// bound required by §4.8 ("Location-service requests have a fixed
// retry bound").
const (
	DefaultRetryInterval = 1 * time.Second
	DefaultMaxRetries    = 3
)

type pendingRequest struct {
	ID       uuid.UUID
	Target   wire.LLAddr
	Buffer   *pktbuf.Buffer[struct{}]
	Deadline time.Time
	Retries  int
}

// Service tracks one outstanding request per target address. Multiple
// Submit calls for the same target while a request is outstanding
// coalesce onto the same broadcast and buffer (§4.5: "concurrent
// requests for the same target coalesce to one broadcast").
type Service struct {
	pending       map[wire.LLAddr]*pendingRequest
	order         []wire.LLAddr
	retryInterval time.Duration
	maxRetries    int
	bufferBytes   int
	clock         clock.Clock
}

// New builds a Service. bufferBytes bounds the per-target packet
// buffer (shared with pktbuf.Buffer's own capacity accounting).
func New(retryInterval time.Duration, maxRetries, bufferBytes int, clk clock.Clock) *Service {
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		pending:       map[wire.LLAddr]*pendingRequest{},
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
		bufferBytes:   bufferBytes,
		clock:         clk,
	}
}

// Submit buffers payload awaiting target's position. It reports
// whether a fresh Location Service Request broadcast is needed now
// (false means an earlier request is already outstanding for this
// target and this submission coalesced onto it).
func (s *Service) Submit(target wire.LLAddr, payload []byte, lifetime time.Duration) (broadcast bool, err error) {
	if req, ok := s.pending[target]; ok {
		return false, req.Buffer.Enqueue(payload, struct{}{}, lifetime)
	}

	req := &pendingRequest{
		ID:       uuid.New(),
		Target:   target,
		Buffer:   pktbuf.New[struct{}](s.bufferBytes, s.clock),
		Deadline: s.clock.Now().Add(s.retryInterval),
	}
	if err := req.Buffer.Enqueue(payload, struct{}{}, lifetime); err != nil {
		return false, err
	}

	s.pending[target] = req
	s.order = append(s.order, target)
	return true, nil
}

// PollAt returns the earliest retry deadline among pending requests, or
// the zero Time if nothing is pending. Buffered packets whose lifetime
// ends before that deadline are only reaped by the next Poll.
func (s *Service) PollAt() time.Time {
	var earliest time.Time
	for _, target := range s.order {
		req, ok := s.pending[target]
		if !ok {
			continue
		}
		if earliest.IsZero() || req.Deadline.Before(earliest) {
			earliest = req.Deadline
		}
	}
	return earliest
}

// Poll drops expired or retry-exhausted requests and returns the
// targets that need a fresh Location Service Request broadcast this
// cycle.
func (s *Service) Poll(now time.Time) []wire.LLAddr {
	var due []wire.LLAddr
	var keep []wire.LLAddr

	for _, target := range s.order {
		req, ok := s.pending[target]
		if !ok {
			continue
		}

		req.Buffer.DropExpired()
		if req.Buffer.Len() == 0 {
			delete(s.pending, target)
			continue
		}

		if now.Before(req.Deadline) {
			keep = append(keep, target)
			continue
		}

		req.Retries++
		if req.Retries > s.maxRetries {
			delete(s.pending, target)
			continue
		}

		req.Deadline = now.Add(s.retryInterval)
		due = append(due, target)
		keep = append(keep, target)
	}

	s.order = keep
	return due
}

// Resolve releases every packet buffered for target, called when a
// matching Location Service Reply arrives. ok is false if no request
// is outstanding for target.
func (s *Service) Resolve(target wire.LLAddr) (packets [][]byte, ok bool) {
	req, found := s.pending[target]
	if !found {
		return nil, false
	}

	for {
		p, has := req.Buffer.DequeueOne()
		if !has {
			break
		}
		packets = append(packets, p)
	}

	delete(s.pending, target)
	s.order = removeTarget(s.order, target)
	return packets, true
}

// Len reports the number of targets with an outstanding request.
func (s *Service) Len() int { return len(s.pending) }

func removeTarget(order []wire.LLAddr, target wire.LLAddr) []wire.LLAddr {
	out := order[:0]
	for _, t := range order {
		if t != target {
			out = append(out, t)
		}
	}
	return out
}
