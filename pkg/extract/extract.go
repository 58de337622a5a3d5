// Package extract builds a scene with a geometry kernel and produces what
// the reinforcement pipeline consumes: the boundary faces of the pierced
// host and one face list per opening. Preview meshes are optional.
package extract

import (
	"errors"
	"fmt"

	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/kernel"
	"github.com/chazu/trimbar/pkg/reinforce"
	"github.com/chazu/trimbar/pkg/scene"
)

// ErrNoHost is returned for a scene without a host.
var ErrNoHost = errors.New("extract: scene has no host")

// Options control extraction.
type Options struct {
	// Meshes also tessellates the host and every opening.
	Meshes bool
}

// Geometry is the extracted input of one run.
type Geometry struct {
	Host       []geom.Face
	Candidates []reinforce.Candidate
	Meshes     []*kernel.Mesh
}

// Extract places the host and its openings, cuts the openings that pass
// through the host and returns the faces. Openings that do not pass through
// are still returned as candidates so the pipeline can report them. The
// scene is never mutated.
func Extract(s *scene.Scene, k kernel.Kernel, opts Options) (*Geometry, error) {
	if s == nil || s.Host == nil {
		return nil, ErrNoHost
	}
	h := s.Host

	host, err := k.Box(h.Size)
	if err != nil {
		return nil, fmt.Errorf("extract: host %s: %w", h.Name, err)
	}
	host = k.Place(host, h.Origin, h.Rotation)

	through, _ := s.Through()
	isThrough := make(map[string]bool, len(through))
	for _, o := range through {
		isThrough[o.Name] = true
	}

	g := &Geometry{}
	var cuts []kernel.Solid
	solids := make([]kernel.Solid, 0, len(s.Openings))
	for _, o := range s.Openings {
		solid, err := placeOpening(k, h, o)
		if err != nil {
			return nil, err
		}
		solids = append(solids, solid)
		if isThrough[o.Name] {
			cuts = append(cuts, solid)
		}

		faces, err := k.Faces(solid)
		if err != nil {
			return nil, fmt.Errorf("extract: opening %s faces: %w", o.Name, err)
		}
		g.Candidates = append(g.Candidates, reinforce.Candidate{ID: o.Name, Faces: faces})
	}

	pierced, err := k.Cut(host, cuts...)
	if err != nil {
		return nil, fmt.Errorf("extract: cutting host %s: %w", h.Name, err)
	}
	for _, o := range through {
		c := h.Origin.Add(geom.Rotate(o.Box().Center(), geom.V(0, 0, 1), h.Rotation))
		if pierced.Evaluate(c) <= 0 {
			return nil, fmt.Errorf("extract: opening %s was not removed from host %s", o.Name, h.Name)
		}
	}
	if g.Host, err = k.Faces(pierced); err != nil {
		return nil, fmt.Errorf("extract: host %s faces: %w", h.Name, err)
	}

	if opts.Meshes {
		mesh, err := k.ToMesh(pierced)
		if err != nil {
			return nil, fmt.Errorf("extract: ToMesh failed for host %s: %w", h.Name, err)
		}
		mesh.Name = h.Name
		g.Meshes = append(g.Meshes, mesh)
		for i, o := range s.Openings {
			mesh, err := k.ToMesh(solids[i])
			if err != nil {
				return nil, fmt.Errorf("extract: ToMesh failed for opening %s: %w", o.Name, err)
			}
			mesh.Name = o.Name
			g.Meshes = append(g.Meshes, mesh)
		}
	}
	return g, nil
}

// placeOpening builds the opening box and gives it the host's placement,
// offset by the opening's local min corner.
func placeOpening(k kernel.Kernel, h *scene.Host, o scene.Opening) (kernel.Solid, error) {
	b := o.Box()
	if b.Empty() {
		return nil, fmt.Errorf("extract: opening %s is empty", o.Name)
	}
	solid, err := k.Box(b.Size())
	if err != nil {
		return nil, fmt.Errorf("extract: opening %s: %w", o.Name, err)
	}
	at := h.Origin.Add(geom.Rotate(b.Min, geom.V(0, 0, 1), h.Rotation))
	return k.Place(solid, at, h.Rotation), nil
}
