// Package index maintains in-process buckets mapping attribute values to the
// entity identifiers currently holding them, so link derivation finds its
// candidates in O(1) instead of scanning the store.
package index

import (
	"sort"
	"sync"
)

// Kind names one linkable attribute.
type Kind string

const (
	KindEmail   Kind = "email"
	KindPhone   Kind = "phone"
	KindAddress Kind = "address"
	KindPayment Kind = "payment_method"
	KindIP      Kind = "ip_address"
	KindDevice  Kind = "device_id"
)

// Kinds lists every attribute kind the index tracks.
var Kinds = []Kind{KindEmail, KindPhone, KindAddress, KindPayment, KindIP, KindDevice}

// AttributeIndex holds one bucket map per attribute kind. Updates within a
// kind are linearized by that kind's mutex: when two entities sharing a value
// are indexed concurrently, at least one Add observes the other in the bucket,
// so the edge between them is never lost. Different kinds proceed in parallel.
type AttributeIndex struct {
	kinds map[Kind]*kindIndex
}

type kindIndex struct {
	mu      sync.Mutex
	buckets map[string]map[string]struct{}
	current map[string]string // entity id -> value it is indexed under
}

// New returns an empty index covering all attribute kinds.
func New() *AttributeIndex {
	kinds := make(map[Kind]*kindIndex, len(Kinds))
	for _, k := range Kinds {
		kinds[k] = &kindIndex{
			buckets: make(map[string]map[string]struct{}),
			current: make(map[string]string),
		}
	}
	return &AttributeIndex{kinds: kinds}
}

// Add indexes id under value for the given kind and returns the other members
// of that value's bucket, atomically. If the entity was previously indexed
// under a different value it is moved out of the old bucket first, so upserts
// never derive links from outdated values. An empty value only removes the
// old entry.
func (ix *AttributeIndex) Add(kind Kind, value, id string) []string {
	ki, ok := ix.kinds[kind]
	if !ok {
		return nil
	}
	ki.mu.Lock()
	defer ki.mu.Unlock()

	if prev, had := ki.current[id]; had && prev != value {
		if bucket := ki.buckets[prev]; bucket != nil {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(ki.buckets, prev)
			}
		}
		delete(ki.current, id)
	}
	if value == "" {
		return nil
	}

	bucket := ki.buckets[value]
	if bucket == nil {
		bucket = make(map[string]struct{})
		ki.buckets[value] = bucket
	}
	bucket[id] = struct{}{}
	ki.current[id] = value

	peers := make([]string, 0, len(bucket)-1)
	for member := range bucket {
		if member != id {
			peers = append(peers, member)
		}
	}
	return peers
}

// Members returns the identifiers currently indexed under value.
func (ix *AttributeIndex) Members(kind Kind, value string) []string {
	ki, ok := ix.kinds[kind]
	if !ok || value == "" {
		return nil
	}
	ki.mu.Lock()
	defer ki.mu.Unlock()

	bucket := ki.buckets[value]
	members := make([]string, 0, len(bucket))
	for member := range bucket {
		members = append(members, member)
	}
	return members
}

// Buckets snapshots every group of the given kind with more than one member,
// each sorted by identifier. This is the bulk loader's group-by view.
func (ix *AttributeIndex) Buckets(kind Kind) map[string][]string {
	ki, ok := ix.kinds[kind]
	if !ok {
		return nil
	}
	ki.mu.Lock()
	defer ki.mu.Unlock()

	groups := make(map[string][]string)
	for value, bucket := range ki.buckets {
		if len(bucket) < 2 {
			continue
		}
		ids := make([]string, 0, len(bucket))
		for id := range bucket {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		groups[value] = ids
	}
	return groups
}

// Reset clears every bucket.
func (ix *AttributeIndex) Reset() {
	for _, ki := range ix.kinds {
		ki.mu.Lock()
		ki.buckets = make(map[string]map[string]struct{})
		ki.current = make(map[string]string)
		ki.mu.Unlock()
	}
}
