package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/mdl"
	"github.com/sourcetool/mdlbrowser/studio"
	"github.com/sourcetool/mdlbrowser/vtx"
	"github.com/sourcetool/mdlbrowser/vvd"
)

func makeMdl(checksum int32, meshVerts int) *mdl.Mdl {
	return &mdl.Mdl{
		Header: mdl.Header{Name: "models/props/crate.mdl", Checksum: checksum},
		Bones:  []mdl.Bone{{Name: "root", Parent: -1}},
		Textures: []mdl.Texture{
			{Name: "crate_wood"},
			{Name: "crate_metal"},
		},
		TextureDirs: []string{"models/props/"},
		BodyParts: []mdl.BodyPart{{
			Name: "body",
			Models: []mdl.Submodel{{
				Name:        "crate_body",
				VertexBase:  0,
				VertexCount: int32(meshVerts),
				Meshes: []mdl.Mesh{{
					Material:       0,
					VertexOffset:   0,
					VertexCount:    int32(meshVerts),
					LodVertexCount: [studio.MaxLods]int32{int32(meshVerts), 2},
				}},
			}},
		}},
	}
}

func makeVvd(checksum int32, count int, fixups []vvd.Fixup, lods int) *vvd.Vvd {
	v := &vvd.Vvd{
		Checksum: checksum,
		NumLods:  int32(lods),
		Fixups:   fixups,
	}
	v.LodVertexCount[0] = int32(count)
	for i := 0; i < count; i++ {
		v.Vertices = append(v.Vertices, vvd.Vertex{
			Weights:   [3]float32{1, 0, 0},
			BoneCount: 1,
			Position:  mgl32.Vec3{float32(i), float32(i) * 2, 0},
			Normal:    mgl32.Vec3{0, 0, 1},
			UV:        mgl32.Vec2{float32(i) / 4, 0.5},
		})
		v.Tangents = append(v.Tangents, mgl32.Vec4{1, 0, 0, 1})
	}
	return v
}

// makeVtx wraps one strip group per lod into the full nesting. A lod whose
// vertex list in perLod is nil gets an empty mesh.
func makeVtx(checksum int32, lods int, perLod [][2][]uint32) *vtx.Vtx {
	v := &vtx.Vtx{Checksum: checksum, NumLods: int32(lods)}
	m := vtx.Model{}
	for lod := 0; lod < lods; lod++ {
		var ml vtx.ModelLod
		if perLod[lod][0] != nil {
			origs := perLod[lod][0]
			indices := perLod[lod][1]
			sg := vtx.StripGroup{
				Indices: indices,
				Strips: []vtx.Strip{{
					IndexCount:  int32(len(indices)),
					VertexCount: int32(len(origs)),
					Flags:       vtx.STRIP_IS_TRI_LIST,
				}},
			}
			for _, o := range origs {
				sg.Vertices = append(sg.Vertices, vtx.Vertex{OrigMeshVertID: uint16(o), BoneCount: 1})
			}
			ml.Meshes = []vtx.Mesh{{StripGroups: []vtx.StripGroup{sg}}}
		} else {
			ml.Meshes = []vtx.Mesh{{}}
		}
		m.Lods = append(m.Lods, ml)
	}
	v.BodyParts = []vtx.BodyPart{{Models: []vtx.Model{m}}}
	return v
}

func quad() [2][]uint32 {
	return [2][]uint32{
		{0, 1, 2, 3},
		{0, 1, 2, 2, 1, 3},
	}
}

func TestAssemble(t *testing.T) {
	m, err := Assemble(
		makeMdl(0x1234, 4),
		makeVvd(0x1234, 4, nil, 1),
		makeVtx(0x1234, 1, [][2][]uint32{quad()}),
		0)
	if err != nil {
		t.Fatal(err)
	}

	if m.Name != "models/props/crate.mdl" || m.Lod != 0 {
		t.Errorf("model = %q lod %d", m.Name, m.Lod)
	}
	if len(m.BodyParts) != 1 || len(m.BodyParts[0].Models) != 1 {
		t.Fatalf("tree = %+v", m.BodyParts)
	}
	mesh := &m.BodyParts[0].Models[0].Meshes[0]
	if len(mesh.Vertices) != 4 {
		t.Fatalf("vertices = %d", len(mesh.Vertices))
	}
	if mesh.Vertices[3].Position != (mgl32.Vec3{3, 6, 0}) {
		t.Errorf("vertex 3 = %+v", mesh.Vertices[3])
	}
	if mesh.Vertices[1].Tangent != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("tangent = %v", mesh.Vertices[1].Tangent)
	}
	want := []uint32{0, 1, 2, 2, 1, 3}
	if len(mesh.Indices) != len(want) {
		t.Fatalf("indices = %v", mesh.Indices)
	}
	for i := range want {
		if mesh.Indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", mesh.Indices, want)
		}
	}
	if mesh.MaterialName != "crate_wood" {
		t.Errorf("material = %q", mesh.MaterialName)
	}
	if m.TriangleCount() != 2 || m.VertexCount() != 4 {
		t.Errorf("counts = %d tris %d verts", m.TriangleCount(), m.VertexCount())
	}

	min, max := m.BoundingBox()
	if min != (mgl32.Vec3{0, 0, 0}) || max != (mgl32.Vec3{3, 6, 0}) {
		t.Errorf("bbox = %v..%v", min, max)
	}
}

func TestAssembleChecksumMismatch(t *testing.T) {
	_, err := Assemble(
		makeMdl(0x1234, 4),
		makeVvd(0x9999, 4, nil, 1),
		makeVtx(0x1234, 1, [][2][]uint32{quad()}),
		0)
	me, ok := err.(*studio.MismatchedFileSetError)
	if !ok {
		t.Fatalf("err = %v, want MismatchedFileSetError", err)
	}
	if me.VvdChecksum != 0x9999 {
		t.Errorf("error = %+v", me)
	}
}

func TestAssembleFixupReorder(t *testing.T) {
	// the pool stores the lod0 exclusive run first, so the table has to
	// stitch the view back into original order
	fixups := []vvd.Fixup{
		{Lod: 0, SourceIndex: 2, Count: 2},
		{Lod: 1, SourceIndex: 0, Count: 2},
	}
	v := makeVvd(0x1234, 4, fixups, 2)

	m, err := Assemble(
		makeMdl(0x1234, 4),
		v,
		makeVtx(0x1234, 2, [][2][]uint32{quad(), {{0, 1}, {0, 1, 1}}}),
		0)
	if err != nil {
		t.Fatal(err)
	}
	mesh := &m.BodyParts[0].Models[0].Meshes[0]
	for i := 0; i < 4; i++ {
		if mesh.Vertices[i].Position != v.Vertices[i].Position {
			t.Errorf("vertex %d landed at %v, want %v", i, mesh.Vertices[i].Position, v.Vertices[i].Position)
		}
	}
}

func TestAssembleDanglingVertex(t *testing.T) {
	fixups := []vvd.Fixup{
		{Lod: 0, SourceIndex: 2, Count: 2},
		{Lod: 1, SourceIndex: 0, Count: 2},
	}
	// lod 1 geometry reaches for vertex 2, which only lod 0 keeps
	_, err := Assemble(
		makeMdl(0x1234, 4),
		makeVvd(0x1234, 4, fixups, 2),
		makeVtx(0x1234, 2, [][2][]uint32{quad(), {{0, 1, 2}, {0, 1, 2}}}),
		1)
	de, ok := errors.Cause(err).(*studio.DanglingVertexReferenceError)
	if !ok {
		t.Fatalf("err = %v, want DanglingVertexReferenceError", err)
	}
	if de.Index != 2 || de.Lod != 1 {
		t.Errorf("error = %+v", de)
	}
}

func TestAssembleStructuralMismatch(t *testing.T) {
	geo := makeVtx(0x1234, 1, [][2][]uint32{quad()})
	geo.BodyParts[0].Models = nil
	_, err := Assemble(makeMdl(0x1234, 4), makeVvd(0x1234, 4, nil, 1), geo, 0)
	if _, ok := err.(*studio.StructuralMismatchError); !ok {
		t.Fatalf("err = %v, want StructuralMismatchError", err)
	}

	geo = makeVtx(0x1234, 1, [][2][]uint32{quad()})
	geo.BodyParts = append(geo.BodyParts, vtx.BodyPart{})
	_, err = Assemble(makeMdl(0x1234, 4), makeVvd(0x1234, 4, nil, 1), geo, 0)
	if _, ok := err.(*studio.StructuralMismatchError); !ok {
		t.Fatalf("err = %v, want StructuralMismatchError", err)
	}
}

func TestAssembleLodOutOfRange(t *testing.T) {
	_, err := Assemble(
		makeMdl(0x1234, 4),
		makeVvd(0x1234, 4, nil, 1),
		makeVtx(0x1234, 1, [][2][]uint32{quad()}),
		3)
	if err == nil {
		t.Error("lod past the file set should fail")
	}
}

func TestAssembleMaterialReplacement(t *testing.T) {
	geo := makeVtx(0x1234, 1, [][2][]uint32{quad()})
	geo.MaterialReplacements = [][]vtx.MaterialReplacement{
		{{MaterialID: 0, Name: "crate_wood_cheap"}},
	}
	m, err := Assemble(makeMdl(0x1234, 4), makeVvd(0x1234, 4, nil, 1), geo, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.BodyParts[0].Models[0].Meshes[0].MaterialName; got != "crate_wood_cheap" {
		t.Errorf("material = %q", got)
	}
}

func TestUnrollTriStrip(t *testing.T) {
	sg := &vtx.StripGroup{
		Indices: []uint32{0, 1, 2, 3, 3, 4},
	}
	s := &vtx.Strip{
		IndexCount: int32(len(sg.Indices)),
		Flags:      vtx.STRIP_IS_TRI_STRIP,
	}
	var mesh Mesh
	unrollStrip(&mesh, s, sg, 0)

	// the odd triangle flips winding, the two stitching triangles
	// through the repeated index drop out
	want := []uint32{0, 1, 2, 1, 3, 2}
	if len(mesh.Indices) != len(want) {
		t.Fatalf("indices = %v, want %v", mesh.Indices, want)
	}
	for i := range want {
		if mesh.Indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", mesh.Indices, want)
		}
	}
}

func TestDecodeBuffers(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}, nil, nil, 0); err == nil {
		t.Error("garbage input should fail")
	}
}

func TestMaterialCandidates(t *testing.T) {
	m := &Model{MaterialSearchPaths: []string{"models/props/", "models/shared/"}}
	got := m.MaterialCandidates("crate_wood")
	want := []string{
		"materials/models/props/crate_wood.vmt",
		"materials/models/shared/crate_wood.vmt",
	}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}

	bare := (&Model{}).MaterialCandidates("crate_wood")
	if len(bare) != 1 || bare[0] != "materials/crate_wood.vmt" {
		t.Errorf("bare candidates = %v", bare)
	}
}

func TestAssembleLodVertexCountDrift(t *testing.T) {
	// vvd resolves 3 vertices for lod 0 while mdl declares 4
	v := makeVvd(0x1234, 4, nil, 1)
	v.LodVertexCount[0] = 3
	_, err := Assemble(makeMdl(0x1234, 4), v, makeVtx(0x1234, 1, [][2][]uint32{quad()}), 0)
	if _, ok := errors.Cause(err).(*studio.StructuralMismatchError); !ok {
		t.Fatalf("err = %v, want StructuralMismatchError", err)
	}
}

func TestAssembleBoneIndexOutOfRange(t *testing.T) {
	// single bone skeleton, one vertex weighted against bone 200
	v := makeVvd(0x1234, 4, nil, 1)
	v.Vertices[2].Bones[0] = 200
	_, err := Assemble(makeMdl(0x1234, 4), v, makeVtx(0x1234, 1, [][2][]uint32{quad()}), 0)
	if _, ok := errors.Cause(err).(*studio.StructuralMismatchError); !ok {
		t.Fatalf("err = %v, want StructuralMismatchError", err)
	}
}
