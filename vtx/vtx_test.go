package vtx

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/sourcetool/mdlbrowser/studio"
)

type fixture struct {
	b []byte
}

func (w *fixture) off() int { return len(w.b) }

func (w *fixture) i32(vs ...int32) {
	for _, v := range vs {
		w.b = binary.LittleEndian.AppendUint32(w.b, uint32(v))
	}
}

func (w *fixture) u16(vs ...uint16) {
	for _, v := range vs {
		w.b = binary.LittleEndian.AppendUint16(w.b, v)
	}
}

func (w *fixture) f32(v float32) {
	w.b = binary.LittleEndian.AppendUint32(w.b, math.Float32bits(v))
}

func (w *fixture) u8(vs ...byte) { w.b = append(w.b, vs...) }

func (w *fixture) slot() int {
	p := w.off()
	w.i32(0)
	return p
}

// patchRel links the offset slot at patch to the current position,
// relative to the record that owns the slot.
func (w *fixture) patchRel(patch, base int) {
	binary.LittleEndian.PutUint32(w.b[patch:], uint32(w.off()-base))
}

// buildTestVtx lays out one bodypart, one model, two lods. Lod 0 holds a
// single mesh with four vertices and two triangles, lod 1 is empty.
func buildTestVtx() []byte {
	w := &fixture{}

	w.i32(7, 24) // version, vert cache size
	w.u16(53, 9) // max bones per strip, per tri
	w.i32(3)     // max bones per vert
	w.i32(0x1234)
	w.i32(2) // lods
	matReplPatch := w.slot()
	w.i32(1) // bodyparts
	bpPatch := w.slot()

	bpOff := w.off()
	w.patchRel(bpPatch, 0)
	w.i32(1)
	modelPatch := w.slot()

	mOff := w.off()
	w.patchRel(modelPatch, bpOff)
	w.i32(2)
	lodPatch := w.slot()

	lod0 := w.off()
	w.patchRel(lodPatch, mOff)
	w.i32(1)
	meshPatch := w.slot()
	w.f32(0)
	// lod 1 has no meshes
	w.i32(0, 0)
	w.f32(25)

	meshOff := w.off()
	w.patchRel(meshPatch, lod0)
	w.i32(1)
	sgPatch := w.slot()
	w.u8(0) // mesh flags

	sgOff := w.off()
	w.patchRel(sgPatch, meshOff)
	w.i32(4)
	vertPatch := w.slot()
	w.i32(6)
	idxPatch := w.slot()
	w.i32(1)
	stripPatch := w.slot()
	w.u8(STRIPGROUP_IS_HWSKINNED)

	w.patchRel(vertPatch, sgOff)
	for i := 0; i < 4; i++ {
		w.u8(0, 0, 0)           // bone weight indexes
		w.u8(1)                 // bone count
		w.u16(uint16(i))        // orig mesh vertex
		w.u8(0, 0, 0)           // bone ids
	}

	w.patchRel(idxPatch, sgOff)
	w.u16(0, 1, 2, 2, 1, 3)

	stripOff := w.off()
	w.patchRel(stripPatch, sgOff)
	w.i32(6, 0) // index count, offset
	w.i32(4, 0) // vertex count, offset
	w.u16(1)    // bone count
	w.u8(STRIP_IS_TRI_LIST)
	w.i32(1) // bone state changes
	changePatch := w.slot()

	w.patchRel(changePatch, stripOff)
	w.i32(0, 7) // hardware id, new bone

	// one replacement list record per lod
	matOff := w.off()
	w.patchRel(matReplPatch, 0)
	w.i32(1)
	replPatch := w.slot()
	w.i32(0, 0) // lod 1 replaces nothing

	replOff := w.off()
	w.patchRel(replPatch, matOff)
	w.b = append(w.b, 0, 0) // material id 0
	namePatch := w.slot()
	w.patchRel(namePatch, replOff)
	w.b = append(w.b, "crate_wood_cheap"...)
	w.b = append(w.b, 0)

	return w.b
}

func TestDecode(t *testing.T) {
	v, err := Decode(buildTestVtx())
	if err != nil {
		t.Fatal(err)
	}

	if v.Version != 7 || v.Checksum != 0x1234 || v.NumLods != 2 {
		t.Errorf("header = version %d checksum %#x lods %d", v.Version, v.Checksum, v.NumLods)
	}
	if v.VertCacheSize != 24 || v.MaxBonesPerStrip != 53 || v.MaxBonesPerVert != 3 {
		t.Errorf("limits = %d/%d/%d", v.VertCacheSize, v.MaxBonesPerStrip, v.MaxBonesPerVert)
	}

	if len(v.BodyParts) != 1 || len(v.BodyParts[0].Models) != 1 {
		t.Fatalf("tree = %+v", v.BodyParts)
	}
	m := &v.BodyParts[0].Models[0]
	if len(m.Lods) != 2 {
		t.Fatalf("lods = %d", len(m.Lods))
	}
	if m.Lods[1].SwitchPoint != 25 || len(m.Lods[1].Meshes) != 0 {
		t.Errorf("lod 1 = %+v", m.Lods[1])
	}

	if len(m.Lods[0].Meshes) != 1 {
		t.Fatalf("lod 0 meshes = %d", len(m.Lods[0].Meshes))
	}
	sg := &m.Lods[0].Meshes[0].StripGroups[0]
	if sg.Flags != STRIPGROUP_IS_HWSKINNED {
		t.Errorf("strip group flags = %#x", sg.Flags)
	}
	if len(sg.Vertices) != 4 || len(sg.Indices) != 6 || len(sg.Strips) != 1 {
		t.Fatalf("strip group = %d verts %d indices %d strips", len(sg.Vertices), len(sg.Indices), len(sg.Strips))
	}
	if sg.Vertices[3].OrigMeshVertID != 3 {
		t.Errorf("vertex 3 = %+v", sg.Vertices[3])
	}
	if sg.Indices[5] != 3 {
		t.Errorf("indices = %v", sg.Indices)
	}

	s := &sg.Strips[0]
	if s.Flags&STRIP_IS_TRI_LIST == 0 || s.IndexCount != 6 {
		t.Errorf("strip = %+v", s)
	}
	if len(s.BoneStateChanges) != 1 || s.BoneStateChanges[0].NewBoneID != 7 {
		t.Errorf("bone state changes = %+v", s.BoneStateChanges)
	}
	if sg.TriangleCount() != 2 {
		t.Errorf("triangles = %d", sg.TriangleCount())
	}

	if len(v.MaterialReplacements) != 2 {
		t.Fatalf("replacement lists = %d", len(v.MaterialReplacements))
	}
	if len(v.MaterialReplacements[0]) != 1 || v.MaterialReplacements[0][0].Name != "crate_wood_cheap" {
		t.Errorf("lod 0 replacements = %+v", v.MaterialReplacements[0])
	}
	if len(v.MaterialReplacements[1]) != 0 {
		t.Errorf("lod 1 replacements = %+v", v.MaterialReplacements[1])
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	buf := buildTestVtx()
	binary.LittleEndian.PutUint32(buf[0:], 6)
	_, err := Decode(buf)
	ve, ok := err.(*studio.UnsupportedVersionError)
	if !ok {
		t.Fatalf("err = %v, want UnsupportedVersionError", err)
	}
	if ve.Found != 6 {
		t.Errorf("found = %d", ve.Found)
	}
}

func TestDecodeIndexOutOfRange(t *testing.T) {
	buf := buildTestVtx()
	v, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	_ = v

	// first index is right behind the four 9 byte vertices; walk there
	// through the recorded offsets instead of hardcoding the layout
	find := func(pattern []byte) int {
		for i := 0; i+len(pattern) <= len(buf); i++ {
			match := true
			for j, p := range pattern {
				if buf[i+j] != p {
					match = false
					break
				}
			}
			if match {
				return i
			}
		}
		return -1
	}
	idx := find([]byte{0, 0, 1, 0, 2, 0, 2, 0, 1, 0, 3, 0})
	if idx < 0 {
		t.Fatal("index block not found")
	}
	binary.LittleEndian.PutUint16(buf[idx:], 9)
	if _, err := Decode(buf); err == nil {
		t.Error("index past strip group vertices should fail")
	}
}

func TestDecodeLodCountMismatch(t *testing.T) {
	buf := buildTestVtx()
	binary.LittleEndian.PutUint32(buf[20:], 3) // header now claims 3 lods
	if _, err := Decode(buf); err == nil {
		t.Error("model lod count drifting from the header should fail")
	}
}

func TestDecodeTruncated(t *testing.T) {
	buf := buildTestVtx()
	if _, err := Decode(buf[:20]); err == nil {
		t.Error("truncated header should fail")
	}
	if _, err := Decode(buf[:HEADER_SIZE+4]); err == nil {
		t.Error("missing bodypart table should fail")
	}
}
