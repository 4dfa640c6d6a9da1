// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watermark

import (
	"cmp"
	"slices"
	"sync"

	"import.name/lock"

	. "import.name/type/context"
)

// MemoryStore is a Store which doesn't persist anything.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

func (s *MemoryStore) Insert(ctx Context, r *Record) error {
	lock.Guard(&s.mu, func() {
		s.records = append(s.records, *r)
	})
	return nil
}

func (s *MemoryStore) List(ctx Context, device string, limit int) (list []*Record, err error) {
	lock.Guard(&s.mu, func() {
		for i := len(s.records) - 1; i >= 0; i-- {
			if limit > 0 && len(list) == limit {
				break
			}
			if r := s.records[i]; r.Device == device {
				list = append(list, &r)
			}
		}
	})
	return
}

func (s *MemoryStore) Worst(ctx Context, device string) (*Record, error) {
	var found []Record

	lock.Guard(&s.mu, func() {
		for _, r := range s.records {
			if r.Device == device {
				found = append(found, r)
			}
		}
	})

	if len(found) == 0 {
		return nil, ErrNotFound
	}

	r := slices.MaxFunc(found, func(a, b Record) int {
		return cmp.Compare(a.HighWater, b.HighWater)
	})
	return &r, nil
}
