package model

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/sourcetool/mdlbrowser/studio"
	"github.com/sourcetool/mdlbrowser/vvd"
)

// lodView is the vertex pool visible at one level of detail. Without
// fixups that is simply a prefix of the stored pool. With fixups it is the
// concatenation, in table order, of every run kept for this lod, and
// original vertex indexes have to be remapped through the runs.
type lodView struct {
	lod      int
	vertices []vvd.Vertex
	tangents []mgl32.Vec4

	// runs sorted by source index for the remap lookup, empty when the
	// view is a plain prefix
	runs []vertexRun
}

type vertexRun struct {
	src   int32
	dst   int32
	count int32
}

func buildLodView(v *vvd.Vvd, lod int) *lodView {
	view := &lodView{lod: lod}

	if len(v.Fixups) == 0 {
		n := int(v.LodVertexCount[lod])
		view.vertices = v.Vertices[:n]
		if v.Tangents != nil {
			view.tangents = v.Tangents[:n]
		}
		return view
	}

	for _, f := range v.Fixups {
		if int(f.Lod) < lod {
			continue
		}
		dst := int32(len(view.vertices))
		view.vertices = append(view.vertices, v.Vertices[f.SourceIndex:f.SourceIndex+f.Count]...)
		if v.Tangents != nil {
			view.tangents = append(view.tangents, v.Tangents[f.SourceIndex:f.SourceIndex+f.Count]...)
		}
		view.runs = append(view.runs, vertexRun{src: f.SourceIndex, dst: dst, count: f.Count})
	}
	sort.Slice(view.runs, func(i, j int) bool { return view.runs[i].src < view.runs[j].src })
	return view
}

// remap translates an original pool index into this view. Indexes that no
// kept run covers are dangling for this lod.
func (view *lodView) remap(orig int) (int, error) {
	if view.runs == nil {
		if orig < 0 || orig >= len(view.vertices) {
			return 0, &studio.DanglingVertexReferenceError{Index: orig, Lod: view.lod}
		}
		return orig, nil
	}

	i := sort.Search(len(view.runs), func(i int) bool {
		return view.runs[i].src > int32(orig)
	})
	if i == 0 {
		return 0, &studio.DanglingVertexReferenceError{Index: orig, Lod: view.lod}
	}
	run := view.runs[i-1]
	if int32(orig) >= run.src+run.count {
		return 0, &studio.DanglingVertexReferenceError{Index: orig, Lod: view.lod}
	}
	return int(run.dst + (int32(orig) - run.src)), nil
}
