package reinforce

import (
	"fmt"
	"math"

	"github.com/chazu/trimbar/pkg/geom"
)

// Classification is the split of an opening's faces into cut faces (lying
// on the host boundary, i.e. the walls of the hole) and the two end faces
// capping the opening. Both lists keep the input order.
type Classification struct {
	Cut  []geom.Face
	Ends []geom.Face
}

// Classify partitions faces against the host boundary. A face is cut when
// its centroid lies within p.Tolerance of some host face. When more than two
// faces remain, a ray is cast along the normal of each and only faces whose ray
// hits another remaining face are kept as ends; the rest join the cut set so
// that the partition still covers every face.
func Classify(host, faces []geom.Face, p Params) (Classification, error) {
	var c Classification
	var ends []geom.Face
	for _, f := range faces {
		if minHostDistance(f.Centroid(), host) <= p.Tolerance {
			c.Cut = append(c.Cut, f)
		} else {
			ends = append(ends, f)
		}
	}
	if len(c.Cut) == 0 {
		return Classification{}, fmt.Errorf("%w: no face of the opening lies on the host", ErrClassification)
	}

	if len(ends) > 2 {
		keep := make(map[geom.FaceID]bool, len(ends))
		for i, f := range ends {
			ray := faceRay(f, p.RayLength)
			for j, other := range ends {
				if i == j {
					continue
				}
				if len(other.IntersectSegment(ray, p.Tolerance)) > 0 {
					keep[f.ID] = true
					break
				}
			}
		}
		// Rebuild both lists from the input so order is preserved.
		c.Cut, ends = c.Cut[:0], ends[:0]
		for _, f := range faces {
			if keep[f.ID] {
				ends = append(ends, f)
			} else {
				c.Cut = append(c.Cut, f)
			}
		}
	}

	if len(ends) != 2 {
		return Classification{}, fmt.Errorf("%w: %d end faces, want 2", ErrClassification, len(ends))
	}
	c.Ends = ends
	return c, nil
}

// faceRay is a segment of the given length through the face centroid
// along its normal, centred on the face.
func faceRay(f geom.Face, length float64) geom.Segment {
	c := f.Centroid()
	n := f.Normal().MulScalar(length / 2)
	return geom.NewSegment(c.Sub(n), c.Add(n))
}

// minHostDistance is the distance from p to the nearest host face, +Inf
// when there are none.
func minHostDistance(p geom.Vec, host []geom.Face) float64 {
	best := math.Inf(1)
	for _, h := range host {
		best = math.Min(best, h.Distance(p))
	}
	return best
}
