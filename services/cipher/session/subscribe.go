// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
)

// subscriber is one Subscribe channel with its own rate limiter.
type subscriber struct {
	ch      chan anneal.Snapshot
	limiter *rate.Limiter
}

// deliver sends without blocking. Rate-limited snapshots are dropped; a
// forced snapshot replaces any unread one so terminal states always arrive.
func (sub *subscriber) deliver(snap anneal.Snapshot, force bool) {
	if !force && !sub.limiter.Allow() {
		return
	}
	select {
	case sub.ch <- snap:
		return
	default:
	}
	if !force {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- snap:
	default:
	}
}

// broadcast runs on the worker goroutine, the only sender.
func (s *search) broadcast(snap anneal.Snapshot, force bool) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		sub.deliver(snap, force)
	}
}

func (s *search) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, sub := range s.subs {
		close(sub.ch)
		delete(s.subs, id)
	}
	s.final = true
}

// Subscribe returns a channel of progress snapshots for the search.
//
// Description:
//
//	Snapshots arrive at most SnapshotRate per second; the channel holds one
//	value and older unread snapshots are dropped rather than blocking the
//	worker. The terminal snapshot is always delivered, after which the
//	channel is closed. Subscribing to a finished search yields its final
//	snapshot and a closed channel.
//
// Outputs:
//   - <-chan anneal.Snapshot: Progress stream.
//   - func(): Unsubscribes and closes the channel. Safe to call repeatedly.
//   - error: ErrUnknownHandle.
func (c *Controller) Subscribe(handle Handle) (<-chan anneal.Snapshot, func(), error) {
	s, err := c.lookup(handle)
	if err != nil {
		return nil, nil, err
	}

	sub := &subscriber{
		ch:      make(chan anneal.Snapshot, 1),
		limiter: rate.NewLimiter(rate.Limit(c.config.SnapshotRate), c.config.SnapshotBurst),
	}

	s.subsMu.Lock()
	if s.final {
		s.subsMu.Unlock()
		sub.ch <- *s.snapshot.Load()
		close(sub.ch)
		return sub.ch, func() {}, nil
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	sub.ch <- *s.snapshot.Load()
	s.subsMu.Unlock()

	c.metrics.Subscribers.Add(context.Background(), 1)

	unsubscribed := false
	unsubscribe := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if unsubscribed {
			return
		}
		unsubscribed = true
		c.metrics.Subscribers.Add(context.Background(), -1)
		if _, ok := s.subs[id]; ok {
			close(sub.ch)
			delete(s.subs, id)
		}
	}
	return sub.ch, unsubscribe, nil
}
