package model

import (
	"fmt"
	"io"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/sourcetool/mdlbrowser/utils/fbxbuilder"
)

type FbxExportMesh struct {
	FbxGeometryId int64
	FbxGeometry   *fbx.Node
	FbxModelId    int64
	FbxModel      *fbx.Node

	BodyPart int
	SubModel int
	Mesh     int
	Material string
}

type FbxExporter struct {
	m      *Model
	Meshes []*FbxExportMesh
}

func (fe *FbxExporter) exportMesh(f *fbxbuilder.FBXBuilder, fem *FbxExportMesh) {
	mesh := &fe.m.BodyParts[fem.BodyPart].Models[fem.SubModel].Meshes[fem.Mesh]
	fem.Material = mesh.MaterialName

	vertices := make([]float64, 0, len(mesh.Vertices)*3)
	normals := make([]float64, 0, len(mesh.Vertices)*3)
	uv := make([]float64, 0, len(mesh.Vertices)*2)
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		vertices = append(vertices,
			float64(v.Position.X()), float64(v.Position.Y()), float64(v.Position.Z()))
		normals = append(normals,
			float64(v.Normal.X()), float64(v.Normal.Y()), float64(v.Normal.Z()))
		uv = append(uv, float64(v.UV.X()), float64(-v.UV.Y()))
	}

	// the closing index of every polygon is stored negated minus one
	indexes := make([]int32, 0, len(mesh.Indices))
	uvindexes := make([]int32, 0, len(mesh.Indices))
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a, b, c := int32(mesh.Indices[i]), int32(mesh.Indices[i+1]), int32(mesh.Indices[i+2])
		indexes = append(indexes, a, b, -(c)-1)
		uvindexes = append(uvindexes, a, b, c)
	}

	name := fmt.Sprintf("bp%d_sm%d_m%d", fem.BodyPart, fem.SubModel, fem.Mesh)

	fem.FbxGeometryId = f.GenerateId()
	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	geometry := bfbx73.Geometry(fem.FbxGeometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	geometry.AddNode(
		bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals(normals),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementNormal"),
			bfbx73.TypedIndex(0),
		),
	)

	geometry.AddNode(
		bfbx73.LayerElementUV(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.UV(uv),
			bfbx73.UVIndex(uvindexes),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementUV"),
			bfbx73.TypedIndex(0),
		),
	)

	geometry.AddNode(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	fem.FbxGeometry = geometry
	fem.FbxModelId = f.GenerateId()
	fem.FbxModel = bfbx73.Model(fem.FbxModelId, name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(fem.FbxModel, geometry)
	f.AddConnections(bfbx73.C("OO", fem.FbxGeometryId, fem.FbxModelId))

	fe.Meshes = append(fe.Meshes, fem)
}

func (m *Model) ExportFbx(f *fbxbuilder.FBXBuilder) *FbxExporter {
	fe := &FbxExporter{
		m:      m,
		Meshes: make([]*FbxExportMesh, 0),
	}
	defer f.AddCache(m.Name, fe)

	for iPart := range m.BodyParts {
		for iSub := range m.BodyParts[iPart].Models {
			for iMesh := range m.BodyParts[iPart].Models[iSub].Meshes {
				if len(m.BodyParts[iPart].Models[iSub].Meshes[iMesh].Indices) == 0 {
					continue
				}
				fe.exportMesh(f, &FbxExportMesh{
					BodyPart: iPart,
					SubModel: iSub,
					Mesh:     iMesh,
				})
			}
		}
	}
	fe.m = nil // free memory

	return fe
}

func (m *Model) ExportFbxDefault() *fbxbuilder.FBXBuilder {
	f := fbxbuilder.NewFBXBuilder(m.Name)
	fe := m.ExportFbx(f)

	for _, mesh := range fe.Meshes {
		f.AddConnections(bfbx73.C("OO", mesh.FbxModelId, 0))
	}
	return f
}

// WriteFbx writes the model as a binary fbx scene.
func (m *Model) WriteFbx(w io.Writer) error {
	return m.ExportFbxDefault().Write(w)
}
