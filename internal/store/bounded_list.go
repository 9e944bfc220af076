package store

import (
	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
)

// BoundedList is an append-only record container with a byte budget. Records
// are held by value and never aliased out. Once the cumulative estimated
// size reaches the ceiling further appends are dropped, not buffered; the
// offered counter keeps growing so the drop rate stays observable.
type BoundedList struct {
	records   []codec.Record
	maxBytes  int64
	usedBytes int64
	offered   int64
}

func NewBoundedList(maxBytes int64) *BoundedList {
	return &BoundedList{
		maxBytes: maxBytes,
	}
}

// Append admits the record if the budget allows it and reports whether it
// was stored. A full list is a soft cap on data volume, not an error.
func (l *BoundedList) Append(r codec.Record) bool {
	l.offered++
	size := r.EstimatedSize()
	if l.usedBytes+size > l.maxBytes {
		return false
	}
	l.usedBytes += size
	l.records = append(l.records, r)
	return true
}

// Records exposes the stored records for iteration. Callers must not mutate
// them.
func (l *BoundedList) Records() []codec.Record {
	return l.records
}

// Len returns the accepted record count.
func (l *BoundedList) Len() int {
	return len(l.records)
}

// Offered returns how many records were handed to Append, accepted or not.
func (l *BoundedList) Offered() int64 {
	return l.offered
}

// Accepted returns how many records Append admitted.
func (l *BoundedList) Accepted() int64 {
	return int64(len(l.records))
}

// UsedBytes returns the cumulative estimated size of accepted records.
func (l *BoundedList) UsedBytes() int64 {
	return l.usedBytes
}

// MaxBytes returns the configured ceiling.
func (l *BoundedList) MaxBytes() int64 {
	return l.maxBytes
}
