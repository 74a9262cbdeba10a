package mdl

import (
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
)

const FILE = "mdl"

// Mdl is a fully decoded studio model file. All strings and tables are
// copied out, nothing references the source buffer.
type Mdl struct {
	Header Header

	Bones     []Bone
	BodyParts []BodyPart

	Textures     []Texture
	TextureDirs  []string
	SkinFamilies [][]uint16

	Sequences  []Sequence
	Animations []AnimationDesc

	Attachments []Attachment
	HitboxSets  []HitboxSet

	SurfaceProp string
	KeyValues   string

	BoneTransforms []SourceBoneTransform
}

type SourceBoneTransform struct {
	Name string
	Pre  studio.Mat34
	Post studio.Mat34
}

func Decode(buf []byte) (*Mdl, error) {
	r := binread.NewReader(buf)

	h, t, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	m := &Mdl{Header: *h}

	if m.Bones, err = decodeBones(r, t); err != nil {
		return nil, errors.Wrap(err, "bones")
	}
	if m.BodyParts, err = decodeBodyParts(r, t); err != nil {
		return nil, errors.Wrap(err, "bodyparts")
	}
	if m.Textures, err = decodeTextures(r, t); err != nil {
		return nil, errors.Wrap(err, "textures")
	}
	if m.TextureDirs, err = decodeTextureDirs(r, t); err != nil {
		return nil, errors.Wrap(err, "texture dirs")
	}
	if t.SkinFamilyCount > 0 {
		if m.SkinFamilies, err = decodeSkinFamilies(r, t, len(m.Textures)); err != nil {
			return nil, errors.Wrap(err, "skin families")
		}
	}
	if m.Sequences, err = decodeSequences(r, t); err != nil {
		return nil, errors.Wrap(err, "sequences")
	}
	if m.Animations, err = decodeAnimations(r, t); err != nil {
		return nil, errors.Wrap(err, "animations")
	}
	if m.Attachments, err = decodeAttachments(r, t, len(m.Bones)); err != nil {
		return nil, errors.Wrap(err, "attachments")
	}
	if m.HitboxSets, err = decodeHitboxSets(r, t, len(m.Bones)); err != nil {
		return nil, errors.Wrap(err, "hitbox sets")
	}

	if t.SurfacePropOffset != 0 {
		if m.SurfaceProp, err = r.Sub(int(t.SurfacePropOffset)).StringZ(256); err != nil {
			return nil, studio.Corrupt(FILE, "surfaceprop", err)
		}
	}
	if t.KeyValueOffset != 0 && t.KeyValueSize > 0 {
		kv, err := r.SubRange(int(t.KeyValueOffset), int(t.KeyValueSize))
		if err != nil {
			return nil, studio.Corrupt(FILE, "keyvalues", err)
		}
		raw, _ := kv.Bytes(int(t.KeyValueSize))
		for len(raw) != 0 && raw[len(raw)-1] == 0 {
			raw = raw[:len(raw)-1]
		}
		m.KeyValues = string(raw)
	}

	if t.Header2Offset != 0 {
		if m.BoneTransforms, err = decodeHeader2(r, int(t.Header2Offset)); err != nil {
			return nil, errors.Wrap(err, "header2")
		}
	}

	return m, nil
}

const SRC_BONE_TRANSFORM_SIZE = 100

// decodeHeader2 reads the extension header appended by newer compilers.
// Offsets inside it are relative to the extension, not the file.
func decodeHeader2(r *binread.Reader, off int) ([]SourceBoneTransform, error) {
	hr := r.Sub(off)
	count, _ := hr.I32()
	tblOff, err := hr.I32()
	if err != nil {
		return nil, studio.Corrupt(FILE, "header2", err)
	}
	if count == 0 {
		return nil, nil
	}

	xforms := make([]SourceBoneTransform, count)
	err = hr.Array(int(tblOff), int(count), SRC_BONE_TRANSFORM_SIZE, func(i int, er *binread.Reader) error {
		x := &xforms[i]
		nameOff, _ := er.I32()
		var err error
		if x.Name, err = er.Sub(int(nameOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "bone transform name", err)
		}
		for j := range x.Pre {
			x.Pre[j], _ = er.F32()
		}
		for j := range x.Post {
			if x.Post[j], err = er.F32(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return xforms, nil
}

// VertexCountForLod sums the per mesh vertex counts for one level of
// detail across the whole model.
func (m *Mdl) VertexCountForLod(lod int) int {
	total := 0
	for i := range m.BodyParts {
		for j := range m.BodyParts[i].Models {
			for k := range m.BodyParts[i].Models[j].Meshes {
				total += int(m.BodyParts[i].Models[j].Meshes[k].LodVertexCount[lod])
			}
		}
	}
	return total
}

// MaterialName resolves a mesh material through a skin family row.
func (m *Mdl) MaterialName(family, material int) (string, bool) {
	if family >= 0 && family < len(m.SkinFamilies) {
		row := m.SkinFamilies[family]
		if material >= 0 && material < len(row) {
			material = int(row[material])
		}
	}
	if material < 0 || material >= len(m.Textures) {
		return "", false
	}
	return m.Textures[material].Name, true
}
