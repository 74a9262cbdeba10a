package vvd

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/sourcetool/mdlbrowser/studio"
)

type testVertex struct {
	weights   [3]float32
	bones     [3]uint8
	boneCount uint8
	pos       [3]float32
}

func buildTestVvd(verts []testVertex, fixups []Fixup, lodCounts []int32, withTangents bool) []byte {
	var b []byte
	i32 := func(vs ...int32) {
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint32(b, uint32(v))
		}
	}
	f32 := func(vs ...float32) {
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
	}

	i32(int32(MAGIC), 4, 0x1234)
	i32(int32(len(lodCounts)))
	for i := 0; i < studio.MaxLods; i++ {
		if i < len(lodCounts) {
			i32(lodCounts[i])
		} else {
			i32(0)
		}
	}

	fixupStart := HEADER_SIZE
	vertexStart := fixupStart + len(fixups)*FIXUP_SIZE
	tangentStart := 0
	if withTangents {
		tangentStart = vertexStart + len(verts)*VERTEX_SIZE
	}
	i32(int32(len(fixups)), int32(fixupStart), int32(vertexStart), int32(tangentStart))

	for _, f := range fixups {
		i32(f.Lod, f.SourceIndex, f.Count)
	}
	for _, v := range verts {
		f32(v.weights[0], v.weights[1], v.weights[2])
		b = append(b, v.bones[0], v.bones[1], v.bones[2], v.boneCount)
		f32(v.pos[0], v.pos[1], v.pos[2]) // position
		f32(0, 0, 1)                      // normal
		f32(0.5, 0.5)                     // uv
	}
	if withTangents {
		for range verts {
			f32(1, 0, 0, 1)
		}
	}
	return b
}

func simpleVerts(n int) []testVertex {
	verts := make([]testVertex, n)
	for i := range verts {
		verts[i] = testVertex{
			weights:   [3]float32{1, 0, 0},
			boneCount: 1,
			pos:       [3]float32{float32(i), 0, 0},
		}
	}
	return verts
}

func TestDecode(t *testing.T) {
	buf := buildTestVvd(simpleVerts(4), nil, []int32{4, 2}, true)
	v, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if v.Checksum != 0x1234 || v.NumLods != 2 {
		t.Errorf("checksum/lods = %#x/%d", v.Checksum, v.NumLods)
	}
	if len(v.Vertices) != 4 || len(v.Tangents) != 4 || len(v.Fixups) != 0 {
		t.Fatalf("counts = %d/%d/%d", len(v.Vertices), len(v.Tangents), len(v.Fixups))
	}
	if v.Vertices[2].Position.X() != 2 {
		t.Errorf("vertex 2 = %+v", v.Vertices[2])
	}
	if v.Vertices[0].UV != [2]float32{0.5, 0.5} {
		t.Errorf("uv = %v", v.Vertices[0].UV)
	}
	if v.Tangents[0] != [4]float32{1, 0, 0, 1} {
		t.Errorf("tangent = %v", v.Tangents[0])
	}
	if len(v.Warnings) != 0 {
		t.Errorf("warnings = %v", v.Warnings)
	}
}

func TestDecodeNoTangents(t *testing.T) {
	buf := buildTestVvd(simpleVerts(3), nil, []int32{3}, false)
	v, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Vertices) != 3 || v.Tangents != nil {
		t.Errorf("counts = %d, tangents %v", len(v.Vertices), v.Tangents)
	}
}

func TestDecodeFixups(t *testing.T) {
	fixups := []Fixup{
		{Lod: 1, SourceIndex: 0, Count: 2},
		{Lod: 0, SourceIndex: 2, Count: 2},
	}
	buf := buildTestVvd(simpleVerts(4), fixups, []int32{4, 2}, false)
	v, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Fixups) != 2 || v.Fixups[0].Lod != 1 || v.Fixups[1].SourceIndex != 2 {
		t.Errorf("fixups = %+v", v.Fixups)
	}
}

func TestDecodeFixupOutOfRange(t *testing.T) {
	buf := buildTestVvd(simpleVerts(4), []Fixup{{Lod: 0, SourceIndex: 3, Count: 4}}, []int32{4}, false)
	if _, err := Decode(buf); err == nil {
		t.Error("fixup past vertex pool should fail")
	}

	buf = buildTestVvd(simpleVerts(4), []Fixup{{Lod: 5, SourceIndex: 0, Count: 2}}, []int32{4, 2}, false)
	if _, err := Decode(buf); err == nil {
		t.Error("fixup lod past numLODs should fail")
	}
}

func TestDecodeLodCountPastPool(t *testing.T) {
	// without fixups a lower lod may not declare more vertices than the
	// file stores, even when lod 0 is fine
	buf := buildTestVvd(simpleVerts(4), nil, []int32{4, 100}, false)
	_, err := Decode(buf)
	if err == nil {
		t.Fatal("oversized lod 1 count should fail")
	}
	if _, ok := err.(*studio.CorruptError); !ok {
		t.Errorf("err = %v, want CorruptError", err)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	buf := buildTestVvd(simpleVerts(1), nil, []int32{1}, false)
	buf[3] = 'X'
	if _, err := Decode(buf); err == nil {
		t.Fatal("bad magic should fail")
	} else if _, ok := err.(*studio.BadMagicError); !ok {
		t.Fatalf("err = %v, want BadMagicError", err)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	buf := buildTestVvd(simpleVerts(1), nil, []int32{1}, false)
	binary.LittleEndian.PutUint32(buf[4:], 5)
	if _, err := Decode(buf); err == nil {
		t.Fatal("version 5 should fail")
	} else if ve, ok := err.(*studio.UnsupportedVersionError); !ok || ve.Found != 5 {
		t.Fatalf("err = %v, want UnsupportedVersionError{Found: 5}", err)
	}
}

func TestDecodeWeightRenormalization(t *testing.T) {
	verts := simpleVerts(2)
	verts[1] = testVertex{
		weights:   [3]float32{0.5, 0.502, 0},
		bones:     [3]uint8{0, 1, 0},
		boneCount: 2,
	}
	v, err := Decode(buildTestVvd(verts, nil, []int32{2}, false))
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Warnings) != 1 {
		t.Fatalf("warnings = %v", v.Warnings)
	}
	sum := v.Vertices[1].Weights[0] + v.Vertices[1].Weights[1]
	if diff := float64(sum - 1); math.Abs(diff) > 1e-6 {
		t.Errorf("renormalized sum = %g", sum)
	}
}

func TestDecodeWeightSumMismatch(t *testing.T) {
	verts := simpleVerts(1)
	verts[0].weights = [3]float32{0.5, 0.6, 0}
	verts[0].boneCount = 2
	_, err := Decode(buildTestVvd(verts, nil, []int32{1}, false))
	we, ok := err.(*studio.WeightSumMismatchError)
	if !ok {
		t.Fatalf("err = %v, want WeightSumMismatchError", err)
	}
	if we.Vertex != 0 {
		t.Errorf("vertex = %d", we.Vertex)
	}
}

func TestDecodeBoneCountOutOfRange(t *testing.T) {
	verts := simpleVerts(1)
	verts[0].boneCount = 4
	if _, err := Decode(buildTestVvd(verts, nil, []int32{1}, false)); err == nil {
		t.Error("bone count 4 should fail")
	}
}

func TestDecodeTruncated(t *testing.T) {
	buf := buildTestVvd(simpleVerts(4), nil, []int32{4}, true)
	if _, err := Decode(buf[:40]); err == nil {
		t.Error("truncated header should fail")
	}
	if _, err := Decode(buf[:len(buf)-8]); err == nil {
		t.Error("truncated tangent block should fail")
	}
}
