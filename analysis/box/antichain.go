// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package box

// BoxRef is a stable handle on a box of an Antichain
type BoxRef struct {
	// ID is the index of the box in the pool of the antichain
	ID int
	// Generation is the generation of the antichain when the handle was created
	Generation int
}

// An Antichain stores boxes bucketed by signature. Every bucket is an antichain with respect to
// Box.SimplifiedLessThan: a box that is subsumed by a member is never added, and adding a box removes the members it
// subsumes. Boxes live in an append-only pool; removed boxes are moved to the obsolete list and stay in the pool, so
// pointers and BoxRef handles never dangle.
type Antichain struct {
	pool       []*Box
	buckets    map[string][]int
	obsolete   []int
	isObsolete map[int]bool
	generation int
	modified   bool
	size       int
}

// NewAntichain returns an empty antichain
func NewAntichain() *Antichain {
	return &Antichain{
		buckets:    map[string][]int{},
		isObsolete: map[int]bool{},
	}
}

// Get returns the member of the antichain that subsumes b if there is one. Otherwise, it removes every member
// subsumed by b, appends b to its bucket and returns it. Modified reports which case happened.
func (a *Antichain) Get(b *Box) (*Box, BoxRef) {
	a.modified = false
	key := b.Signature()
	bucket := a.buckets[key]

	kept := bucket[:0:0]
	for _, id := range bucket {
		member := a.pool[id]
		if !a.modified && b.SimplifiedLessThan(member) {
			return member, BoxRef{ID: id, Generation: a.generation}
		}
		if member.SimplifiedLessThan(b) {
			a.obsolete = append(a.obsolete, id)
			a.isObsolete[id] = true
			a.modified = true
			continue
		}
		kept = append(kept, id)
	}
	if a.modified {
		a.generation++
	}

	id := len(a.pool)
	a.pool = append(a.pool, b)
	a.buckets[key] = append(kept, id)
	a.modified = true
	a.size++
	return b, BoxRef{ID: id, Generation: a.generation}
}

// Modified returns true if the last call to Get inserted a box
func (a *Antichain) Modified() bool {
	return a.modified
}

// Lookup returns a member of the antichain that subsumes b, or nil
func (a *Antichain) Lookup(b *Box) *Box {
	for _, id := range a.buckets[b.Signature()] {
		if b.SimplifiedLessThan(a.pool[id]) {
			return a.pool[id]
		}
	}
	return nil
}

// Resolve returns the box referenced by ref. The boolean is false if the box has become obsolete.
func (a *Antichain) Resolve(ref BoxRef) (*Box, bool) {
	if ref.ID < 0 || ref.ID >= len(a.pool) {
		return nil, false
	}
	if ref.Generation == a.generation {
		return a.pool[ref.ID], true
	}
	return a.pool[ref.ID], !a.isObsolete[ref.ID]
}

// Boxes returns the current members of all buckets, in insertion order
func (a *Antichain) Boxes() []*Box {
	var res []*Box
	for id, b := range a.pool {
		if !a.isObsolete[id] {
			res = append(res, b)
		}
	}
	return res
}

// Bucket returns the members of the bucket of signature key
func (a *Antichain) Bucket(key string) []*Box {
	var res []*Box
	for _, id := range a.buckets[key] {
		res = append(res, a.pool[id])
	}
	return res
}

// Obsolete returns the boxes that were removed from their bucket, in order of removal
func (a *Antichain) Obsolete() []*Box {
	res := make([]*Box, len(a.obsolete))
	for i, id := range a.obsolete {
		res[i] = a.pool[id]
	}
	return res
}

// Size returns the number of boxes ever inserted
func (a *Antichain) Size() int {
	return a.size
}

// Len returns the number of boxes currently in the buckets
func (a *Antichain) Len() int {
	return a.size - len(a.obsolete)
}

// Generation is incremented every time members become obsolete
func (a *Antichain) Generation() int {
	return a.generation
}
