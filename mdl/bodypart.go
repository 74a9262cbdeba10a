package mdl

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
	"github.com/sourcetool/mdlbrowser/utils"
)

const (
	BODYPART_SIZE = 16
	SUBMODEL_SIZE = 148
	MESH_SIZE     = 116

	// stride of one vertex record in the companion vertex file,
	// used to turn byte offsets into vertex indexes
	VERTEX_STRIDE = 48
)

type BodyPart struct {
	Name   string
	Base   int32
	Models []Submodel
}

type Submodel struct {
	Name           string
	Type           int32
	BoundingRadius float32

	// VertexBase is the index of this submodel's first vertex in the
	// companion vertex file.
	VertexBase  int32
	VertexCount int32

	Meshes []Mesh
}

type Mesh struct {
	Material int32

	// VertexOffset counts vertices from the owning submodel's VertexBase.
	VertexOffset int32
	VertexCount  int32

	MaterialType int32
	MeshId       int32
	Center       mgl32.Vec3

	LodVertexCount [studio.MaxLods]int32
}

func decodeBodyParts(r *binread.Reader, t *tables) ([]BodyPart, error) {
	parts := make([]BodyPart, t.BodyParts.Count)
	err := r.Array(int(t.BodyParts.Offset), int(t.BodyParts.Count), BODYPART_SIZE, func(i int, er *binread.Reader) error {
		p := &parts[i]

		nameOff, _ := er.I32()
		var err error
		if p.Name, err = er.Sub(int(nameOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "bodypart name", err)
		}

		modelCount, _ := er.I32()
		p.Base, _ = er.I32()
		modelOff, err := er.I32()
		if err != nil {
			return err
		}

		p.Models = make([]Submodel, modelCount)
		err = er.Array(int(modelOff), int(modelCount), SUBMODEL_SIZE, func(j int, mr *binread.Reader) error {
			return decodeSubmodel(&p.Models[j], mr)
		})
		if err != nil {
			return errors.Wrapf(err, "bodypart %q", p.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func decodeSubmodel(m *Submodel, r *binread.Reader) error {
	rawName, err := r.Bytes(64)
	if err != nil {
		return err
	}
	m.Name = utils.BytesToString(rawName)

	m.Type, _ = r.I32()
	m.BoundingRadius, _ = r.F32()

	meshCount, _ := r.I32()
	meshOff, _ := r.I32()

	m.VertexCount, _ = r.I32()
	vertexIndex, err := r.I32()
	if err != nil {
		return err
	}
	if vertexIndex%VERTEX_STRIDE != 0 {
		return studio.Corrupt(FILE, "submodel vertexindex",
			errors.Errorf("byte offset %d not a multiple of %d", vertexIndex, VERTEX_STRIDE))
	}
	m.VertexBase = vertexIndex / VERTEX_STRIDE

	// tangent offset, attachments, eyeballs and runtime pointers are
	// not needed for geometry assembly
	r.Skip(4 + 4*4 + 2*4 + 8*4)

	m.Meshes = make([]Mesh, meshCount)
	return r.Array(int(meshOff), int(meshCount), MESH_SIZE, func(k int, mr *binread.Reader) error {
		return decodeMesh(&m.Meshes[k], m, mr)
	})
}

func decodeMesh(msh *Mesh, owner *Submodel, r *binread.Reader) error {
	msh.Material, _ = r.I32()
	r.Skip(4) // back offset to owning submodel
	msh.VertexCount, _ = r.I32()
	msh.VertexOffset, _ = r.I32()
	r.Skip(2 * 4) // flexes
	msh.MaterialType, _ = r.I32()
	r.Skip(4) // materialparam
	msh.MeshId, _ = r.I32()

	var err error
	if msh.Center, err = vec3(r); err != nil {
		return err
	}

	r.Skip(4) // modelvertexdata runtime pointer
	for j := range msh.LodVertexCount {
		msh.LodVertexCount[j], _ = r.I32()
	}
	if err := r.Skip(8 * 4); err != nil {
		return err
	}

	if msh.VertexOffset < 0 || msh.VertexCount < 0 ||
		msh.VertexOffset+msh.VertexCount > owner.VertexCount {
		return studio.Corrupt(FILE, "mesh vertex range",
			errors.Errorf("mesh %d spans [%d..%d) of submodel %q with %d vertices",
				msh.MeshId, msh.VertexOffset, msh.VertexOffset+msh.VertexCount, owner.Name, owner.VertexCount))
	}
	return nil
}
