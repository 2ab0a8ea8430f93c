package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectNextEmpty(t *testing.T) {
	rr := NewRoundRobin()
	assert.Nil(t, rr.SelectNext(nil))
}

func TestSelectNextSingle(t *testing.T) {
	rr := NewRoundRobin()
	a := &Thread{ID: 1, Name: "init"}
	rr.Enqueue(a)

	// A lone thread keeps getting picked.
	assert.Same(t, a, rr.SelectNext(nil))
	assert.Same(t, a, rr.SelectNext(a))
	assert.Equal(t, 1, rr.Len())
}

func TestSelectNextRotates(t *testing.T) {
	rr := NewRoundRobin()
	a := &Thread{ID: 1}
	b := &Thread{ID: 2}
	c := &Thread{ID: 3}
	rr.Enqueue(a)
	rr.Enqueue(b)
	rr.Enqueue(c)

	// Rotation is deterministic: a b c a b c ...
	var got []*Thread
	for i := 0; i < 6; i++ {
		got = append(got, rr.SelectNext(nil))
	}
	assert.Equal(t, []*Thread{a, b, c, a, b, c}, got)
	assert.Equal(t, 3, rr.Len())
}

func TestRemove(t *testing.T) {
	rr := NewRoundRobin()
	a := &Thread{ID: 1}
	b := &Thread{ID: 2}
	c := &Thread{ID: 3}
	rr.Enqueue(a)
	rr.Enqueue(b)
	rr.Enqueue(c)

	rr.Remove(b)
	require.Equal(t, 2, rr.Len())
	assert.Equal(t, []*Thread{a, c, a, c}, []*Thread{
		rr.SelectNext(nil), rr.SelectNext(nil), rr.SelectNext(nil), rr.SelectNext(nil),
	})
}

func TestRemoveEmptyAndAbsent(t *testing.T) {
	rr := NewRoundRobin()
	stray := &Thread{ID: 99}

	assert.NotPanics(t, func() { rr.Remove(stray) })

	rr.Enqueue(&Thread{ID: 1})
	assert.NotPanics(t, func() { rr.Remove(stray) })
	assert.Equal(t, 1, rr.Len())
}
