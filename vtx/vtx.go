package vtx

import (
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
)

const FILE = "vtx"

// The optimized geometry file carries no magic tag, it opens straight
// with the version word.
const (
	VERSION_MIN = 7
	VERSION_MAX = 7

	HEADER_SIZE = 36

	BODYPART_SIZE     = 8
	MODEL_SIZE        = 8
	LOD_SIZE          = 12
	MESH_SIZE         = 9
	STRIPGROUP_SIZE   = 25
	STRIP_SIZE        = 27
	VERTEX_SIZE       = 9
	INDEX_SIZE        = 2
	BONE_CHANGE_SIZE  = 8
	MAT_REPL_LIST_SIZE = 8
	MAT_REPL_SIZE     = 6
)

const (
	STRIPGROUP_IS_FLEXED         = 0x01
	STRIPGROUP_IS_HWSKINNED      = 0x02
	STRIPGROUP_IS_DELTA_FLEXED   = 0x04
	STRIPGROUP_SUPPRESS_HW_MORPH = 0x08
)

const (
	STRIP_IS_TRI_LIST  = 0x01
	STRIP_IS_TRI_STRIP = 0x02
)

const (
	MESH_IS_TEETH = 0x01
	MESH_IS_EYES  = 0x02
)

// Vtx is the decoded hardware geometry file. The bodypart, model and lod
// nesting mirrors the companion skeleton file position by position.
type Vtx struct {
	Version  int32
	Checksum int32

	VertCacheSize    int32
	MaxBonesPerStrip uint16
	MaxBonesPerTri   uint16
	MaxBonesPerVert  int32

	NumLods int32

	MaterialReplacements [][]MaterialReplacement

	BodyParts []BodyPart
}

type BodyPart struct {
	Models []Model
}

type Model struct {
	Lods []ModelLod
}

type ModelLod struct {
	SwitchPoint float32
	Meshes      []Mesh
}

type Mesh struct {
	Flags       uint8
	StripGroups []StripGroup
}

// StripGroup owns a private vertex and index pool. Indices select group
// vertices, group vertices point back at the mesh vertex pool through
// OrigMeshVertID.
type StripGroup struct {
	Flags uint8

	Vertices []Vertex
	Indices  []uint32
	Strips   []Strip
}

type Vertex struct {
	BoneWeightIndex [3]uint8
	BoneCount       uint8
	OrigMeshVertID  uint16
	BoneID          [3]uint8
}

type Strip struct {
	IndexOffset int32
	IndexCount  int32

	VertexOffset int32
	VertexCount  int32

	BoneCount uint16
	Flags     uint8

	BoneStateChanges []BoneStateChange
}

type BoneStateChange struct {
	HardwareID int32
	NewBoneID  int32
}

type MaterialReplacement struct {
	MaterialID int16
	Name       string
}

func Decode(buf []byte) (*Vtx, error) {
	r := binread.NewReader(buf)
	if r.Size() < HEADER_SIZE {
		return nil, studio.Corrupt(FILE, "header", &binread.OutOfBoundsError{Pos: 0, Need: HEADER_SIZE, Size: r.Size()})
	}

	v := &Vtx{}
	v.Version, _ = r.I32()
	if v.Version < VERSION_MIN || v.Version > VERSION_MAX {
		return nil, &studio.UnsupportedVersionError{File: FILE, Found: v.Version, Min: VERSION_MIN, Max: VERSION_MAX}
	}

	v.VertCacheSize, _ = r.I32()
	v.MaxBonesPerStrip, _ = r.U16()
	v.MaxBonesPerTri, _ = r.U16()
	v.MaxBonesPerVert, _ = r.I32()
	v.Checksum, _ = r.I32()
	v.NumLods, _ = r.I32()
	if v.NumLods < 1 || v.NumLods > studio.MaxLods {
		return nil, studio.Corrupt(FILE, "numLODs", errors.Errorf("%d lods", v.NumLods))
	}

	matReplOff, _ := r.I32()
	bodyPartCount, _ := r.I32()
	bodyPartOff, err := r.I32()
	if err != nil {
		return nil, err
	}

	if matReplOff != 0 {
		if v.MaterialReplacements, err = decodeMaterialReplacements(r, int(matReplOff), int(v.NumLods)); err != nil {
			return nil, errors.Wrap(err, "material replacements")
		}
	}

	v.BodyParts = make([]BodyPart, bodyPartCount)
	err = r.Array(int(bodyPartOff), int(bodyPartCount), BODYPART_SIZE, func(i int, er *binread.Reader) error {
		return decodeBodyPart(&v.BodyParts[i], int(v.NumLods), er)
	})
	if err != nil {
		return nil, errors.Wrap(err, "bodyparts")
	}
	return v, nil
}

func decodeBodyPart(bp *BodyPart, numLods int, r *binread.Reader) error {
	count, _ := r.I32()
	off, err := r.I32()
	if err != nil {
		return err
	}
	bp.Models = make([]Model, count)
	return r.Array(int(off), int(count), MODEL_SIZE, func(i int, er *binread.Reader) error {
		return decodeModel(&bp.Models[i], numLods, er)
	})
}

func decodeModel(m *Model, numLods int, r *binread.Reader) error {
	count, _ := r.I32()
	off, err := r.I32()
	if err != nil {
		return err
	}
	// every model carries one entry per declared lod
	if int(count) != numLods {
		return studio.Corrupt(FILE, "model lod count", errors.Errorf("model has %d lods, header says %d", count, numLods))
	}
	m.Lods = make([]ModelLod, count)
	return r.Array(int(off), int(count), LOD_SIZE, func(i int, er *binread.Reader) error {
		return decodeLod(&m.Lods[i], er)
	})
}

func decodeLod(lod *ModelLod, r *binread.Reader) error {
	count, _ := r.I32()
	off, _ := r.I32()
	sw, err := r.F32()
	if err != nil {
		return err
	}
	lod.SwitchPoint = sw
	lod.Meshes = make([]Mesh, count)
	return r.Array(int(off), int(count), MESH_SIZE, func(i int, er *binread.Reader) error {
		return decodeMesh(&lod.Meshes[i], er)
	})
}

func decodeMesh(m *Mesh, r *binread.Reader) error {
	count, _ := r.I32()
	off, _ := r.I32()
	flags, err := r.U8()
	if err != nil {
		return err
	}
	m.Flags = flags
	m.StripGroups = make([]StripGroup, count)
	return r.Array(int(off), int(count), STRIPGROUP_SIZE, func(i int, er *binread.Reader) error {
		return decodeStripGroup(&m.StripGroups[i], er)
	})
}

func decodeStripGroup(sg *StripGroup, r *binread.Reader) error {
	vertCount, _ := r.I32()
	vertOff, _ := r.I32()
	idxCount, _ := r.I32()
	idxOff, _ := r.I32()
	stripCount, _ := r.I32()
	stripOff, _ := r.I32()
	flags, err := r.U8()
	if err != nil {
		return err
	}
	sg.Flags = flags

	sg.Vertices = make([]Vertex, vertCount)
	err = r.Array(int(vertOff), int(vertCount), VERTEX_SIZE, func(i int, er *binread.Reader) error {
		v := &sg.Vertices[i]
		for j := range v.BoneWeightIndex {
			v.BoneWeightIndex[j], _ = er.U8()
		}
		v.BoneCount, _ = er.U8()
		v.OrigMeshVertID, _ = er.U16()
		for j := range v.BoneID {
			if v.BoneID[j], err = er.U8(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return studio.Corrupt(FILE, "strip group vertices", err)
	}

	sg.Indices = make([]uint32, idxCount)
	err = r.Array(int(idxOff), int(idxCount), INDEX_SIZE, func(i int, er *binread.Reader) error {
		idx, err := er.U16()
		if err != nil {
			return err
		}
		if int(idx) >= len(sg.Vertices) {
			return errors.Errorf("index %d selects vertex %d of %d", i, idx, len(sg.Vertices))
		}
		sg.Indices[i] = uint32(idx)
		return nil
	})
	if err != nil {
		return studio.Corrupt(FILE, "strip group indices", err)
	}

	sg.Strips = make([]Strip, stripCount)
	err = r.Array(int(stripOff), int(stripCount), STRIP_SIZE, func(i int, er *binread.Reader) error {
		return decodeStrip(&sg.Strips[i], sg, er)
	})
	if err != nil {
		return err
	}
	return nil
}

func decodeStrip(s *Strip, owner *StripGroup, r *binread.Reader) error {
	s.IndexCount, _ = r.I32()
	s.IndexOffset, _ = r.I32()
	s.VertexCount, _ = r.I32()
	s.VertexOffset, _ = r.I32()
	s.BoneCount, _ = r.U16()
	flags, err := r.U8()
	if err != nil {
		return err
	}
	s.Flags = flags

	changeCount, _ := r.I32()
	changeOff, err := r.I32()
	if err != nil {
		return err
	}

	if s.Flags&(STRIP_IS_TRI_LIST|STRIP_IS_TRI_STRIP) == 0 {
		return studio.Corrupt(FILE, "strip flags", errors.Errorf("strip is neither list nor strip (flags %#x)", s.Flags))
	}
	if s.IndexOffset < 0 || s.IndexCount < 0 || int(s.IndexOffset)+int(s.IndexCount) > len(owner.Indices) {
		return studio.Corrupt(FILE, "strip index range",
			errors.Errorf("strip spans indices [%d..%d) of %d", s.IndexOffset, s.IndexOffset+s.IndexCount, len(owner.Indices)))
	}
	if s.VertexOffset < 0 || s.VertexCount < 0 || int(s.VertexOffset)+int(s.VertexCount) > len(owner.Vertices) {
		return studio.Corrupt(FILE, "strip vertex range",
			errors.Errorf("strip spans vertices [%d..%d) of %d", s.VertexOffset, s.VertexOffset+s.VertexCount, len(owner.Vertices)))
	}

	if changeCount > 0 {
		s.BoneStateChanges = make([]BoneStateChange, changeCount)
		return r.Array(int(changeOff), int(changeCount), BONE_CHANGE_SIZE, func(i int, er *binread.Reader) error {
			c := &s.BoneStateChanges[i]
			c.HardwareID, _ = er.I32()
			var err error
			c.NewBoneID, err = er.I32()
			return err
		})
	}
	return nil
}

func decodeMaterialReplacements(r *binread.Reader, off, numLods int) ([][]MaterialReplacement, error) {
	lists := make([][]MaterialReplacement, numLods)
	err := r.Array(off, numLods, MAT_REPL_LIST_SIZE, func(i int, er *binread.Reader) error {
		count, _ := er.I32()
		tblOff, err := er.I32()
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		lists[i] = make([]MaterialReplacement, count)
		return er.Array(int(tblOff), int(count), MAT_REPL_SIZE, func(j int, rr *binread.Reader) error {
			repl := &lists[i][j]
			id, _ := rr.I16()
			repl.MaterialID = id
			nameOff, err := rr.I32()
			if err != nil {
				return err
			}
			if repl.Name, err = rr.Sub(int(nameOff)).StringZ(256); err != nil {
				return studio.Corrupt(FILE, "replacement material name", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}

// TriangleCount sums unrolled triangles across every strip of the group.
func (sg *StripGroup) TriangleCount() int {
	total := 0
	for i := range sg.Strips {
		s := &sg.Strips[i]
		if s.Flags&STRIP_IS_TRI_STRIP != 0 {
			if s.IndexCount >= 3 {
				total += int(s.IndexCount) - 2
			}
		} else {
			total += int(s.IndexCount) / 3
		}
	}
	return total
}
