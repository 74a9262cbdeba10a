package model

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/mdl"
	"github.com/sourcetool/mdlbrowser/studio"
	"github.com/sourcetool/mdlbrowser/vtx"
	"github.com/sourcetool/mdlbrowser/vvd"
)

// Assemble joins the three decoded companion files into one render ready
// model at the requested level of detail. The trees are matched position
// by position, nothing is joined by name.
func Assemble(m *mdl.Mdl, verts *vvd.Vvd, geo *vtx.Vtx, lod int) (*Model, error) {
	if m.Header.Checksum != verts.Checksum || m.Header.Checksum != geo.Checksum {
		return nil, &studio.MismatchedFileSetError{
			MdlChecksum: m.Header.Checksum,
			VvdChecksum: verts.Checksum,
			VtxChecksum: geo.Checksum,
		}
	}

	if lod < 0 || lod >= int(geo.NumLods) || lod >= int(verts.NumLods) {
		return nil, errors.Errorf("lod %d not available, file set carries %d", lod, minInt(int(geo.NumLods), int(verts.NumLods)))
	}
	if len(geo.BodyParts) != len(m.BodyParts) {
		return nil, &studio.StructuralMismatchError{
			Detail: fmt.Sprintf("%d bodyparts in mdl, %d in vtx", len(m.BodyParts), len(geo.BodyParts)),
		}
	}

	out := &Model{
		Name:                m.Header.Name,
		Checksum:            m.Header.Checksum,
		Lod:                 lod,
		Bones:               m.Bones,
		MaterialSearchPaths: m.TextureDirs,
		Warnings:            verts.Warnings,
		Mdl:                 m,
	}

	view := buildLodView(verts, lod)
	if want := m.VertexCountForLod(lod); len(view.vertices) != want {
		return nil, &studio.StructuralMismatchError{
			Detail: fmt.Sprintf("lod %d resolves %d vertices in vvd, mdl declares %d", lod, len(view.vertices), want),
		}
	}
	replacements := materialReplacementMap(geo, lod)

	out.BodyParts = make([]BodyPart, len(m.BodyParts))
	for bi := range m.BodyParts {
		mbp := &m.BodyParts[bi]
		gbp := &geo.BodyParts[bi]
		if len(gbp.Models) != len(mbp.Models) {
			return nil, &studio.StructuralMismatchError{
				Detail: fmt.Sprintf("bodypart %q holds %d models in mdl, %d in vtx", mbp.Name, len(mbp.Models), len(gbp.Models)),
			}
		}

		obp := &out.BodyParts[bi]
		obp.Name = mbp.Name
		obp.Models = make([]SubModel, len(mbp.Models))
		for mi := range mbp.Models {
			sm, err := assembleSubModel(out, &mbp.Models[mi], &gbp.Models[mi], view, replacements, lod)
			if err != nil {
				return nil, errors.Wrapf(err, "bodypart %q model %d", mbp.Name, mi)
			}
			obp.Models[mi] = *sm
		}
	}
	return out, nil
}

// Decode is the buffer level convenience over the three decoders plus
// Assemble.
func Decode(mdlBuf, vvdBuf, vtxBuf []byte, lod int) (*Model, error) {
	m, err := mdl.Decode(mdlBuf)
	if err != nil {
		return nil, err
	}
	verts, err := vvd.Decode(vvdBuf)
	if err != nil {
		return nil, err
	}
	geo, err := vtx.Decode(vtxBuf)
	if err != nil {
		return nil, err
	}
	return Assemble(m, verts, geo, lod)
}

func assembleSubModel(out *Model, msm *mdl.Submodel, gsm *vtx.Model, view *lodView, replacements map[int]string, lod int) (*SubModel, error) {
	sm := &SubModel{Name: msm.Name}

	glod := &gsm.Lods[lod]
	if len(glod.Meshes) != len(msm.Meshes) {
		return nil, &studio.StructuralMismatchError{
			Detail: fmt.Sprintf("submodel %q holds %d meshes in mdl, %d in vtx lod %d", msm.Name, len(msm.Meshes), len(glod.Meshes), lod),
		}
	}

	sm.Meshes = make([]Mesh, len(msm.Meshes))
	for i := range msm.Meshes {
		if err := assembleMesh(out, &sm.Meshes[i], msm, &msm.Meshes[i], &glod.Meshes[i], view, replacements); err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i)
		}
	}
	return sm, nil
}

func assembleMesh(out *Model, dst *Mesh, msm *mdl.Submodel, mm *mdl.Mesh, gm *vtx.Mesh, view *lodView, replacements map[int]string) error {
	dst.Material = int(mm.Material)
	if name, ok := replacements[dst.Material]; ok {
		dst.MaterialName = name
	} else if name, ok := out.Mdl.MaterialName(0, dst.Material); ok {
		dst.MaterialName = name
	}

	// mesh vertices are the strip group pools laid end to end, indices
	// get rebased as the pools land in place
	for sgi := range gm.StripGroups {
		sg := &gm.StripGroups[sgi]
		base := uint32(len(dst.Vertices))

		for vi := range sg.Vertices {
			orig := int(msm.VertexBase) + int(mm.VertexOffset) + int(sg.Vertices[vi].OrigMeshVertID)
			li, err := view.remap(orig)
			if err != nil {
				return err
			}

			src := &view.vertices[li]
			for bi := uint8(0); bi < src.BoneCount; bi++ {
				if int(src.Bones[bi]) >= len(out.Bones) {
					return &studio.StructuralMismatchError{
						Detail: fmt.Sprintf("vertex %d weights bone %d, skeleton holds %d bones", orig, src.Bones[bi], len(out.Bones)),
					}
				}
			}
			v := Vertex{
				Position:  src.Position,
				Normal:    src.Normal,
				UV:        src.UV,
				Bones:     src.Bones,
				Weights:   src.Weights,
				BoneCount: src.BoneCount,
			}
			if view.tangents != nil {
				v.Tangent = view.tangents[li]
			}
			dst.Vertices = append(dst.Vertices, v)
		}

		for si := range sg.Strips {
			unrollStrip(dst, &sg.Strips[si], sg, base)
		}
	}
	return nil
}

// unrollStrip appends plain triangles. Lists copy through, strips expand
// with the usual alternating winding so every triangle faces the same way.
func unrollStrip(dst *Mesh, s *vtx.Strip, sg *vtx.StripGroup, base uint32) {
	idx := sg.Indices[s.IndexOffset : s.IndexOffset+s.IndexCount]

	if s.Flags&vtx.STRIP_IS_TRI_STRIP != 0 {
		for i := 0; i+2 < len(idx); i++ {
			a, b, c := idx[i], idx[i+1], idx[i+2]
			if i&1 == 1 {
				b, c = c, b
			}
			if a == b || b == c || a == c {
				continue // degenerate stitching triangle
			}
			dst.Indices = append(dst.Indices, base+a, base+b, base+c)
		}
		return
	}

	for i := 0; i+2 < len(idx); i += 3 {
		dst.Indices = append(dst.Indices, base+idx[i], base+idx[i+1], base+idx[i+2])
	}
}

func materialReplacementMap(geo *vtx.Vtx, lod int) map[int]string {
	if lod >= len(geo.MaterialReplacements) {
		return nil
	}
	repl := make(map[int]string)
	for _, r := range geo.MaterialReplacements[lod] {
		repl[int(r.MaterialID)] = r.Name
	}
	return repl
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
