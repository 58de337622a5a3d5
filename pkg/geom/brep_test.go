package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxFaces(t *testing.T) {
	b := BoxAt(V(0, 0, 0), V(2, 4, 6))
	faces := BoxFaces(b, 10)
	require.Len(t, faces, 6)

	wantNormals := []Vec{V(-1, 0, 0), V(1, 0, 0), V(0, -1, 0), V(0, 1, 0), V(0, 0, -1), V(0, 0, 1)}
	wantCentroids := []Vec{V(0, 2, 3), V(2, 2, 3), V(1, 0, 3), V(1, 4, 3), V(1, 2, 0), V(1, 2, 6)}
	for i, f := range faces {
		assert.Equal(t, FaceID(10+i), f.ID)
		assertVec(t, wantNormals[i], f.Normal(), "face %d normal", i)
		assertVec(t, wantCentroids[i], f.Centroid(), "face %d centroid", i)
		assert.Empty(t, f.Holes)
	}
}

func TestPiercedBoxFaces(t *testing.T) {
	host := BoxAt(V(0, 0, 0), V(4, 0.3, 3))
	cut := Box{Min: V(1.5, -0.1, 1), Max: V(2.5, 0.4, 2)}
	require.NoError(t, CheckCuts(host, []Box{cut}))

	faces := PiercedBoxFaces(host, []Box{cut}, 0)
	require.Len(t, faces, 10)

	// Only the two faces normal to the through-axis carry the hole.
	for i, f := range faces[:6] {
		if i == 2 || i == 3 {
			require.Len(t, f.Holes, 1, "face %d", i)
		} else {
			assert.Empty(t, f.Holes, "face %d", i)
		}
	}
	front := faces[2]
	assert.False(t, front.Contains(V(2, 0, 1.5), 1e-9), "hole centre is open")
	assert.True(t, front.Contains(V(0.5, 0, 1.5), 1e-9))

	// Hole walls are clamped to the host thickness and face into the hole.
	wantNormals := []Vec{V(0, 0, 1), V(0, 0, -1), V(1, 0, 0), V(-1, 0, 0)}
	wantCentroids := []Vec{V(2, 0.15, 1), V(2, 0.15, 2), V(1.5, 0.15, 1.5), V(2.5, 0.15, 1.5)}
	for i, f := range faces[6:] {
		assert.Equal(t, FaceID(6+i), f.ID)
		assertVec(t, wantNormals[i], f.Normal(), "wall %d normal", i)
		assertVec(t, wantCentroids[i], f.Centroid(), "wall %d centroid", i)
	}
}

func TestPiercedBoxFacesDoorNotch(t *testing.T) {
	host := BoxAt(V(0, 0, 0), V(6, 0.25, 3))
	door := Box{Min: V(3, 0, 0), Max: V(4, 0.25, 2)}
	require.NoError(t, CheckCuts(host, []Box{door}))

	faces := PiercedBoxFaces(host, []Box{door}, 0)
	require.Len(t, faces, 10)
	for i, f := range faces {
		assert.Equal(t, FaceID(i), f.ID)
	}

	// The faces the door passes through are notched, not holed.
	for _, i := range []int{2, 3} {
		f := faces[i]
		assert.Empty(t, f.Holes, "face %d", i)
		assert.Len(t, f.Outer, 8, "face %d", i)
		y := Component(f.Outer[0], 1)
		assert.False(t, f.Contains(V(3.5, y, 1), 1e-9), "face %d: door is open", i)
		assert.True(t, f.Contains(V(3.5, y, 2.5), 1e-9), "face %d: above the door", i)
		assert.True(t, f.Contains(V(1, y, 1), 1e-9), "face %d: beside the door", i)
	}
	assertVec(t, V(0, -1, 0), faces[2].Normal())
	assertVec(t, V(0, 1, 0), faces[3].Normal())

	// The bottom is split in two by the door sill.
	assertVec(t, V(0, 0, -1), faces[4].Normal())
	assertVec(t, V(1.5, 0.125, 0), faces[4].Centroid())
	assertVec(t, V(0, 0, -1), faces[5].Normal())
	assertVec(t, V(5, 0.125, 0), faces[5].Centroid())
	assertVec(t, V(0, 0, 1), faces[6].Normal())

	// Head and jambs; no wall on the flush bottom side.
	wantNormals := []Vec{V(0, 0, -1), V(1, 0, 0), V(-1, 0, 0)}
	wantCentroids := []Vec{V(3.5, 0.125, 2), V(3, 0.125, 1), V(4, 0.125, 1)}
	for i, f := range faces[7:] {
		assertVec(t, wantNormals[i], f.Normal(), "wall %d normal", i)
		assertVec(t, wantCentroids[i], f.Centroid(), "wall %d centroid", i)
	}
}

func TestPiercedBoxFacesCornerNotch(t *testing.T) {
	host := BoxAt(V(0, 0, 0), V(4, 0.3, 3))
	// Overhangs the left end and the bottom of the host.
	cut := Box{Min: V(-1, -0.1, -1), Max: V(1, 0.4, 1)}
	require.NoError(t, CheckCuts(host, []Box{cut}))

	faces := PiercedBoxFaces(host, []Box{cut}, 0)
	// Six sides, each still one piece, plus the two walls inside the host.
	require.Len(t, faces, 8)

	assert.Len(t, faces[2].Outer, 6, "L-shaped front")
	assert.False(t, faces[2].Contains(V(0.5, 0, 0.5), 1e-9))
	assert.True(t, faces[2].Contains(V(2, 0, 0.5), 1e-9))

	// The left end and the bottom lose the cut's footprint.
	assertVec(t, V(0, 0.15, 2), faces[0].Centroid())
	assertVec(t, V(2.5, 0.15, 0), faces[4].Centroid())

	assertVec(t, V(0, 0, -1), faces[6].Normal(), "top of the notch")
	assertVec(t, V(0.5, 0.15, 1), faces[6].Centroid())
	assertVec(t, V(-1, 0, 0), faces[7].Normal(), "side of the notch")
	assertVec(t, V(1, 0.15, 0.5), faces[7].Centroid())
}

func TestPiercedBoxFacesTwoHoles(t *testing.T) {
	host := BoxAt(V(0, 0, 0), V(6, 0.25, 3))
	a := Box{Min: V(1, 0, 1), Max: V(2, 0.25, 2)}
	b := Box{Min: V(3, 0, 1), Max: V(4, 0.25, 2)}

	faces := PiercedBoxFaces(host, []Box{a, b}, 0)
	require.Len(t, faces, 14)
	front := faces[2]
	assert.Len(t, front.Outer, 4)
	require.Len(t, front.Holes, 2)
	assert.False(t, front.Contains(V(1.5, 0, 1.5), 1e-9))
	assert.False(t, front.Contains(V(3.5, 0, 1.5), 1e-9))
	assert.True(t, front.Contains(V(2.5, 0, 1.5), 1e-9))
}

func TestCheckCuts(t *testing.T) {
	host := BoxAt(V(0, 0, 0), V(4, 0.3, 3))
	a := Box{Min: V(0.5, 0, 1), Max: V(1.5, 0.3, 2)}
	b := Box{Min: V(1, 0, 1.5), Max: V(2, 0.3, 2.5)}
	blind := Box{Min: V(2.5, 0, 1), Max: V(3, 0.2, 2)}

	assert.NoError(t, CheckCuts(host, []Box{a}))
	assert.Error(t, CheckCuts(host, []Box{a, b}), "overlap")
	assert.ErrorIs(t, CheckCuts(host, []Box{blind}), ErrNotThrough)
	assert.Error(t, CheckCuts(host, []Box{{Min: V(1, 0, 1), Max: V(1, 0.3, 2)}}), "empty")
}
