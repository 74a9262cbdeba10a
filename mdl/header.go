package mdl

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
	"github.com/sourcetool/mdlbrowser/utils"
)

const (
	MAGIC       = 0x54534449 // "IDST"
	VERSION_MIN = 44
	VERSION_MAX = 49

	HEADER_SIZE = 408
)

type countOffset struct {
	Count  int32
	Offset int32
}

// tables keeps the raw header table directory during decode only. The
// decoded Mdl never retains file offsets.
type tables struct {
	Bones           countOffset
	BoneControllers countOffset
	HitboxSets      countOffset
	LocalAnim       countOffset
	LocalSeq        countOffset
	Textures        countOffset
	TextureDirs     countOffset

	SkinRefCount    int32
	SkinFamilyCount int32
	SkinRefOffset   int32

	BodyParts   countOffset
	Attachments countOffset
	FlexDescs   countOffset
	FlexCtrls   countOffset
	FlexRules   countOffset
	IkChains    countOffset
	Mouths      countOffset
	PoseParams  countOffset

	SurfacePropOffset int32
	KeyValueOffset    int32
	KeyValueSize      int32

	IkLocks       countOffset
	IncludeModels countOffset

	AnimBlockNameOffset int32
	AnimBlocks          countOffset

	BoneTableNameOffset int32
	FlexCtrlUI          countOffset
	Header2Offset       int32
}

type Header struct {
	Version  int32
	Checksum int32
	Name     string
	FileSize int32

	EyePosition          mgl32.Vec3
	IlluminationPosition mgl32.Vec3
	HullMin              mgl32.Vec3
	HullMax              mgl32.Vec3
	ViewBBMin            mgl32.Vec3
	ViewBBMax            mgl32.Vec3

	Flags uint32

	Mass     float32
	Contents int32

	ActivityListVersion int32
	EventsIndexed       int32

	RootLod            uint8
	NumAllowedRootLods uint8

	VertAnimFixedPointScale float32
}

func vec3(r *binread.Reader) (mgl32.Vec3, error) {
	v, err := r.Vec3()
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}

// decodeHeader reads the fixed 408 byte studio header and the table
// directory behind it.
func decodeHeader(r *binread.Reader) (*Header, *tables, error) {
	if r.Size() < HEADER_SIZE {
		return nil, nil, studio.Corrupt(FILE, "header", &binread.OutOfBoundsError{Pos: 0, Need: HEADER_SIZE, Size: r.Size()})
	}

	id, _ := r.U32()
	if id != MAGIC {
		return nil, nil, &studio.BadMagicError{File: FILE, Found: id, Want: MAGIC}
	}

	var h Header
	var t tables
	h.Version, _ = r.I32()
	if h.Version < VERSION_MIN || h.Version > VERSION_MAX {
		return nil, nil, &studio.UnsupportedVersionError{File: FILE, Found: h.Version, Min: VERSION_MIN, Max: VERSION_MAX}
	}
	h.Checksum, _ = r.I32()

	rawName, err := r.Bytes(64)
	if err != nil {
		return nil, nil, err
	}
	h.Name = utils.BytesToString(rawName)

	h.FileSize, _ = r.I32()
	if int(h.FileSize) != r.Size() {
		return nil, nil, studio.Corrupt(FILE, "dataLength", nil)
	}

	for _, dst := range []*mgl32.Vec3{
		&h.EyePosition, &h.IlluminationPosition,
		&h.HullMin, &h.HullMax, &h.ViewBBMin, &h.ViewBBMax,
	} {
		if *dst, err = vec3(r); err != nil {
			return nil, nil, err
		}
	}

	flags, _ := r.U32()
	h.Flags = flags

	readCO := func(co *countOffset) {
		co.Count, _ = r.I32()
		co.Offset, _ = r.I32()
	}

	readCO(&t.Bones)
	readCO(&t.BoneControllers)
	readCO(&t.HitboxSets)
	readCO(&t.LocalAnim)
	readCO(&t.LocalSeq)
	h.ActivityListVersion, _ = r.I32()
	h.EventsIndexed, _ = r.I32()
	readCO(&t.Textures)
	readCO(&t.TextureDirs)
	t.SkinRefCount, _ = r.I32()
	t.SkinFamilyCount, _ = r.I32()
	t.SkinRefOffset, _ = r.I32()
	readCO(&t.BodyParts)
	readCO(&t.Attachments)
	r.Skip(3 * 4) // localnode count/index/nameindex
	readCO(&t.FlexDescs)
	readCO(&t.FlexCtrls)
	readCO(&t.FlexRules)
	readCO(&t.IkChains)
	readCO(&t.Mouths)
	readCO(&t.PoseParams)
	t.SurfacePropOffset, _ = r.I32()
	t.KeyValueOffset, _ = r.I32()
	t.KeyValueSize, _ = r.I32()
	readCO(&t.IkLocks)
	h.Mass, _ = r.F32()
	h.Contents, _ = r.I32()
	readCO(&t.IncludeModels)
	r.Skip(4) // virtualModel runtime pointer
	t.AnimBlockNameOffset, _ = r.I32()
	readCO(&t.AnimBlocks)
	r.Skip(4) // animblockModel runtime pointer
	t.BoneTableNameOffset, _ = r.I32()
	r.Skip(2 * 4) // vertex_base, offset_base runtime pointers
	r.Skip(1)     // directionaldotproduct
	h.RootLod, _ = r.U8()
	h.NumAllowedRootLods, _ = r.U8()
	r.Skip(1 + 4) // unused
	readCO(&t.FlexCtrlUI)
	h.VertAnimFixedPointScale, _ = r.F32()
	r.Skip(4) // unused
	t.Header2Offset, _ = r.I32()
	if err := r.Skip(4); err != nil { // unused tail
		return nil, nil, err
	}

	return &h, &t, nil
}
