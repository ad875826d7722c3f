package like

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlipAndRestoreAreExactInverses(t *testing.T) {
	a := Aggregate{BaseCount: 3, Delta: 0, Liked: false}

	rb := a.Flip()
	assert.True(t, a.Liked)
	assert.Equal(t, 4, a.Count())

	a.Restore(rb)
	assert.False(t, a.Liked)
	assert.Equal(t, 0, a.Delta)
	assert.Equal(t, 3, a.Count())
}

func TestOverlappingTogglesDoNotCompound(t *testing.T) {
	a := Aggregate{BaseCount: 1, Liked: true}

	rb1 := a.Flip() // unlike
	_ = a.Flip()    // like again while first is in flight

	// rolling back the first toggle restores its pre-flip state exactly
	a.Restore(rb1)
	assert.True(t, a.Liked)
	assert.Equal(t, 0, a.Delta)
	assert.Equal(t, 1, a.Count())
}

func TestCountClampedAtZero(t *testing.T) {
	a := Aggregate{BaseCount: 0, Liked: true}
	a.Flip()
	assert.Equal(t, 0, a.Count())
}
