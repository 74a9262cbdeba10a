package model

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOBJ writes the assembled geometry as wavefront text. Bone data has
// no home in the format and is dropped.
func (m *Model) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s lod %d\n", m.Name, m.Lod)

	indexBase := 1
	for iPart := range m.BodyParts {
		part := &m.BodyParts[iPart]
		for iSub := range part.Models {
			sub := &part.Models[iSub]
			for iMesh := range sub.Meshes {
				mesh := &sub.Meshes[iMesh]
				if len(mesh.Indices) == 0 {
					continue
				}

				fmt.Fprintf(bw, "o %s_%s_m%d\n", part.Name, sub.Name, iMesh)
				if mesh.MaterialName != "" {
					fmt.Fprintf(bw, "usemtl %s\n", mesh.MaterialName)
				}
				for i := range mesh.Vertices {
					v := &mesh.Vertices[i]
					fmt.Fprintf(bw, "v %g %g %g\n", v.Position.X(), v.Position.Y(), v.Position.Z())
					fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal.X(), v.Normal.Y(), v.Normal.Z())
					// obj texture space runs bottom up
					fmt.Fprintf(bw, "vt %g %g\n", v.UV.X(), 1-v.UV.Y())
				}
				for i := 0; i+2 < len(mesh.Indices); i += 3 {
					a := indexBase + int(mesh.Indices[i])
					b := indexBase + int(mesh.Indices[i+1])
					c := indexBase + int(mesh.Indices[i+2])
					fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
				}
				indexBase += len(mesh.Vertices)
			}
		}
	}
	return bw.Flush()
}
