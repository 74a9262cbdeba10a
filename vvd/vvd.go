package vvd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
)

const FILE = "vvd"

const (
	MAGIC       = 0x56534449 // "IDSV"
	VERSION_MIN = 4
	VERSION_MAX = 4

	HEADER_SIZE = 64
	VERTEX_SIZE = 48
	TANGENT_SIZE = 16
	FIXUP_SIZE  = 12
)

// Bone weight sums drift a little through the compiler's float pipeline.
// Inside the band the weights are renormalized, outside it the vertex is
// treated as broken.
const (
	WEIGHT_WARN_EPSILON  = 1e-3
	WEIGHT_FATAL_EPSILON = 3e-3
)

// Vvd holds the raw vertex pool of a model, still in compiler order.
// Per lod views are built by applying the fixup table.
type Vvd struct {
	Version  int32
	Checksum int32

	NumLods        int32
	LodVertexCount [studio.MaxLods]int32

	Vertices []Vertex
	Tangents []mgl32.Vec4
	Fixups   []Fixup

	// Warnings lists vertices whose weights needed renormalization.
	Warnings []string
}

type Vertex struct {
	Weights   [3]float32
	Bones     [3]uint8
	BoneCount uint8

	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Fixup names a run of vertices kept for every lod at or below Lod.
type Fixup struct {
	Lod         int32
	SourceIndex int32
	Count       int32
}

func Decode(buf []byte) (*Vvd, error) {
	r := binread.NewReader(buf)
	if r.Size() < HEADER_SIZE {
		return nil, studio.Corrupt(FILE, "header", &binread.OutOfBoundsError{Pos: 0, Need: HEADER_SIZE, Size: r.Size()})
	}

	id, _ := r.U32()
	if id != MAGIC {
		return nil, &studio.BadMagicError{File: FILE, Found: id, Want: MAGIC}
	}

	v := &Vvd{}
	v.Version, _ = r.I32()
	if v.Version < VERSION_MIN || v.Version > VERSION_MAX {
		return nil, &studio.UnsupportedVersionError{File: FILE, Found: v.Version, Min: VERSION_MIN, Max: VERSION_MAX}
	}
	v.Checksum, _ = r.I32()

	v.NumLods, _ = r.I32()
	if v.NumLods < 1 || v.NumLods > studio.MaxLods {
		return nil, studio.Corrupt(FILE, "numLODs", errors.Errorf("%d lods", v.NumLods))
	}
	for i := range v.LodVertexCount {
		v.LodVertexCount[i], _ = r.I32()
		if v.LodVertexCount[i] < 0 {
			return nil, studio.Corrupt(FILE, "lod vertex count", errors.Errorf("lod %d count %d", i, v.LodVertexCount[i]))
		}
	}

	numFixups, _ := r.I32()
	fixupStart, _ := r.I32()
	vertexStart, _ := r.I32()
	tangentStart, err := r.I32()
	if err != nil {
		return nil, err
	}

	// the vertex pool runs from vertexDataStart to the tangent block,
	// or to the end of the file when tangents are absent
	vertexEnd := r.Size()
	if tangentStart != 0 {
		vertexEnd = int(tangentStart)
	}
	if int(vertexStart) < HEADER_SIZE || int(vertexStart) > vertexEnd || vertexEnd > r.Size() {
		return nil, studio.Corrupt(FILE, "vertexDataStart", errors.Errorf("vertex block [%d..%d) in %d bytes", vertexStart, vertexEnd, r.Size()))
	}
	poolSize := vertexEnd - int(vertexStart)
	if poolSize%VERTEX_SIZE != 0 {
		return nil, studio.Corrupt(FILE, "vertex block", errors.Errorf("%d bytes is not a whole number of vertices", poolSize))
	}
	vertexCount := poolSize / VERTEX_SIZE

	v.Vertices = make([]Vertex, vertexCount)
	err = r.Array(int(vertexStart), vertexCount, VERTEX_SIZE, func(i int, er *binread.Reader) error {
		return decodeVertex(v, i, er)
	})
	if err != nil {
		return nil, err
	}

	if tangentStart != 0 {
		v.Tangents = make([]mgl32.Vec4, vertexCount)
		err = r.Array(int(tangentStart), vertexCount, TANGENT_SIZE, func(i int, er *binread.Reader) error {
			t, err := er.Vec4()
			if err != nil {
				return err
			}
			v.Tangents[i] = mgl32.Vec4{t[0], t[1], t[2], t[3]}
			return nil
		})
		if err != nil {
			return nil, studio.Corrupt(FILE, "tangent block", err)
		}
	}

	if numFixups > 0 {
		v.Fixups = make([]Fixup, numFixups)
		err = r.Array(int(fixupStart), int(numFixups), FIXUP_SIZE, func(i int, er *binread.Reader) error {
			f := &v.Fixups[i]
			f.Lod, _ = er.I32()
			f.SourceIndex, _ = er.I32()
			if f.Count, err = er.I32(); err != nil {
				return err
			}
			if f.Lod < 0 || f.Lod >= v.NumLods {
				return studio.Corrupt(FILE, "fixup lod", errors.Errorf("fixup %d lod %d of %d", i, f.Lod, v.NumLods))
			}
			if f.SourceIndex < 0 || f.Count < 0 || int(f.SourceIndex)+int(f.Count) > vertexCount {
				return studio.Corrupt(FILE, "fixup range",
					errors.Errorf("fixup %d spans [%d..%d) of %d vertices", i, f.SourceIndex, f.SourceIndex+f.Count, vertexCount))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		// without fixups each lod is read as a prefix of the pool, so
		// every declared count has to fit inside it
		for i := int32(0); i < v.NumLods; i++ {
			if int(v.LodVertexCount[i]) > vertexCount {
				return nil, studio.Corrupt(FILE, "lod vertex count",
					errors.Errorf("lod %d wants %d of %d stored vertices", i, v.LodVertexCount[i], vertexCount))
			}
		}
	}

	return v, nil
}

func decodeVertex(v *Vvd, i int, r *binread.Reader) error {
	vert := &v.Vertices[i]

	for j := range vert.Weights {
		vert.Weights[j], _ = r.F32()
	}
	for j := range vert.Bones {
		vert.Bones[j], _ = r.U8()
	}
	var err error
	if vert.BoneCount, err = r.U8(); err != nil {
		return err
	}
	if vert.BoneCount > studio.MaxBonesPerVertex {
		return studio.Corrupt(FILE, "vertex bone count", errors.Errorf("vertex %d uses %d bones", i, vert.BoneCount))
	}

	p, _ := r.Vec3()
	vert.Position = mgl32.Vec3{p[0], p[1], p[2]}
	n, _ := r.Vec3()
	vert.Normal = mgl32.Vec3{n[0], n[1], n[2]}
	uv, err := r.Vec2()
	if err != nil {
		return err
	}
	vert.UV = mgl32.Vec2{uv[0], uv[1]}

	if vert.BoneCount == 0 {
		return nil
	}
	var sum float32
	for j := uint8(0); j < vert.BoneCount; j++ {
		sum += vert.Weights[j]
	}
	drift := sum - 1
	if drift < 0 {
		drift = -drift
	}
	if drift > WEIGHT_FATAL_EPSILON {
		return &studio.WeightSumMismatchError{Vertex: i, Sum: sum}
	}
	if drift > WEIGHT_WARN_EPSILON {
		v.Warnings = append(v.Warnings, fmt.Sprintf("vertex %d: weight sum %g renormalized", i, sum))
	}
	if sum != 0 && sum != 1 {
		for j := uint8(0); j < vert.BoneCount; j++ {
			vert.Weights[j] /= sum
		}
	}
	return nil
}
