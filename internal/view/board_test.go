package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	log  *[]string
	name string
}

func (r *recorder) Destroy() { *r.log = append(*r.log, "destroy "+r.name) }

func TestMountDestroysPreviousInstance(t *testing.T) {
	var log []string
	b := NewBoard[*recorder]()

	b.Mount(1, &recorder{log: &log, name: "a"})
	b.Mount(1, &recorder{log: &log, name: "b"})
	assert.Equal(t, []string{"destroy a"}, log)

	h, ok := b.Get(1)
	require.True(t, ok)
	assert.Equal(t, "b", h.name)
	assert.Equal(t, 1, b.Len())
}

func TestRetainAndOrder(t *testing.T) {
	var log []string
	b := NewBoard[*recorder]()
	for i, name := range []string{"a", "b", "c"} {
		b.Mount(int64(i+1), &recorder{log: &log, name: name})
	}

	b.Retain([]int64{3, 1})
	assert.Equal(t, []string{"destroy b"}, log)
	require.Equal(t, 2, b.Len())

	first, ok := b.At(0)
	require.True(t, ok)
	assert.Equal(t, "c", first.name)
	_, ok = b.At(2)
	assert.False(t, ok)
	_, ok = b.Get(2)
	assert.False(t, ok)
}

func TestTeardown(t *testing.T) {
	var log []string
	b := NewBoard[*recorder]()
	b.Mount(1, &recorder{log: &log, name: "a"})
	b.Mount(2, &recorder{log: &log, name: "b"})

	b.Unmount(2)
	b.Unmount(2)
	b.Teardown()
	assert.Equal(t, []string{"destroy b", "destroy a"}, log)
	assert.Zero(t, b.Len())
}
