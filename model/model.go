package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/sourcetool/mdlbrowser/mdl"
)

// Model is an assembled, render ready view of one studio model at a single
// level of detail. Geometry is joined across the three companion files,
// indices are rebased and every triangle is unrolled to a plain list.
type Model struct {
	Name     string
	Checksum int32
	Lod      int

	Bones     []mdl.Bone
	BodyParts []BodyPart

	// MaterialSearchPaths are the directories a material name resolves
	// against, in priority order.
	MaterialSearchPaths []string

	// Warnings carries non fatal oddities found while decoding, such as
	// renormalized bone weights.
	Warnings []string

	// Mdl keeps the full decoded skeleton file for metadata consumers,
	// sequences, attachments, hitboxes and the like.
	Mdl *mdl.Mdl
}

type BodyPart struct {
	Name   string
	Models []SubModel
}

type SubModel struct {
	Name   string
	Meshes []Mesh
}

// Mesh is one draw call worth of geometry, a triangle list over its own
// vertex pool with a single material.
type Mesh struct {
	Material     int
	MaterialName string

	Vertices []Vertex
	Indices  []uint32
}

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Tangent  mgl32.Vec4

	Bones     [3]uint8
	Weights   [3]float32
	BoneCount uint8
}

// TriangleCount sums triangles over every mesh of the model.
func (m *Model) TriangleCount() int {
	total := 0
	for i := range m.BodyParts {
		for j := range m.BodyParts[i].Models {
			for k := range m.BodyParts[i].Models[j].Meshes {
				total += len(m.BodyParts[i].Models[j].Meshes[k].Indices) / 3
			}
		}
	}
	return total
}

func (m *Model) VertexCount() int {
	total := 0
	for i := range m.BodyParts {
		for j := range m.BodyParts[i].Models {
			for k := range m.BodyParts[i].Models[j].Meshes {
				total += len(m.BodyParts[i].Models[j].Meshes[k].Vertices)
			}
		}
	}
	return total
}

// MaterialCandidates expands a material name into the asset paths a game
// would try, one per search directory, in priority order.
func (m *Model) MaterialCandidates(name string) []string {
	if len(m.MaterialSearchPaths) == 0 {
		return []string{"materials/" + name + ".vmt"}
	}
	candidates := make([]string, 0, len(m.MaterialSearchPaths))
	for _, dir := range m.MaterialSearchPaths {
		candidates = append(candidates, "materials/"+dir+name+".vmt")
	}
	return candidates
}

// BoundingBox reports the min and max corner over all assembled vertices.
// A model without geometry yields two zero vectors.
func (m *Model) BoundingBox() (mgl32.Vec3, mgl32.Vec3) {
	var min, max mgl32.Vec3
	first := true
	for i := range m.BodyParts {
		for j := range m.BodyParts[i].Models {
			for k := range m.BodyParts[i].Models[j].Meshes {
				for _, v := range m.BodyParts[i].Models[j].Meshes[k].Vertices {
					if first {
						min, max = v.Position, v.Position
						first = false
						continue
					}
					for a := 0; a < 3; a++ {
						if v.Position[a] < min[a] {
							min[a] = v.Position[a]
						}
						if v.Position[a] > max[a] {
							max[a] = v.Position[a]
						}
					}
				}
			}
		}
	}
	return min, max
}
