package model

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/sourcetool/mdlbrowser/utils/gltfutils"
)

// ExportGLTF appends the assembled geometry to doc, one primitive per
// mesh, materials shared by name.
func (m *Model) ExportGLTF(doc *gltf.Document) error {
	materialIndex := make(map[string]uint32)
	materialFor := func(name string) *uint32 {
		if name == "" {
			name = "default"
		}
		if idx, ok := materialIndex[name]; ok {
			return gltf.Index(idx)
		}
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name:        name,
			DoubleSided: true,
		})
		idx := uint32(len(doc.Materials) - 1)
		materialIndex[name] = idx
		return gltf.Index(idx)
	}

	for iPart := range m.BodyParts {
		part := &m.BodyParts[iPart]
		for iSub := range part.Models {
			sub := &part.Models[iSub]
			for iMesh := range sub.Meshes {
				mesh := &sub.Meshes[iMesh]
				if len(mesh.Indices) == 0 {
					continue
				}
				verticesCount := len(mesh.Vertices)

				positions := make([][3]float32, verticesCount)
				normals := make([][3]float32, verticesCount)
				uvs := make([][2]float32, verticesCount)
				joints := make([][4]uint16, verticesCount)
				weights := make([][4]float32, verticesCount)
				for iVertex := range mesh.Vertices {
					v := &mesh.Vertices[iVertex]
					positions[iVertex] = v.Position
					normal := v.Normal
					if normal.Len() > 0.5 {
						normal = normal.Normalize()
					}
					normals[iVertex] = normal
					uvs[iVertex] = v.UV
					for b := 0; b < int(v.BoneCount); b++ {
						joints[iVertex][b] = uint16(v.Bones[b])
						weights[iVertex][b] = v.Weights[b]
					}
				}

				attributes := map[string]uint32{
					"POSITION":   modeler.WritePosition(doc, positions),
					"NORMAL":     modeler.WriteNormal(doc, normals),
					"TEXCOORD_0": modeler.WriteTextureCoord(doc, uvs),
					"JOINTS_0":   modeler.WriteJoints(doc, joints),
					"WEIGHTS_0":  modeler.WriteWeights(doc, weights),
				}
				indicesAccessor := modeler.WriteIndices(doc, mesh.Indices)

				gltfMesh := &gltf.Mesh{
					Name: fmt.Sprintf("%s_%s_m%d", part.Name, sub.Name, iMesh),
					Primitives: []*gltf.Primitive{
						{
							Indices:    &indicesAccessor,
							Attributes: attributes,
							Material:   materialFor(mesh.MaterialName),
						},
					},
				}
				doc.Meshes = append(doc.Meshes, gltfMesh)
				doc.Nodes = append(doc.Nodes, &gltf.Node{
					Name: gltfMesh.Name,
					Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
				})
			}
		}
	}
	return nil
}

// WriteGLB writes the model as a single binary gltf file.
func (m *Model) WriteGLB(w io.Writer) error {
	doc := gltfutils.NewDocument()
	if err := m.ExportGLTF(doc); err != nil {
		return err
	}
	return gltfutils.ExportBinary(w, doc)
}
