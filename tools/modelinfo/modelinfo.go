package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/sourcetool/mdlbrowser/pack"
	"github.com/sourcetool/mdlbrowser/utils"
	"github.com/sourcetool/mdlbrowser/vfs"
)

func main() {
	var dir, name string
	var lod int
	var dump bool
	flag.StringVar(&dir, "dir", "", "Path to folder with model files")
	flag.StringVar(&name, "model", "", "Model base name (without .mdl)")
	flag.IntVar(&lod, "lod", 0, "Level of detail to assemble")
	flag.BoolVar(&dump, "dump", false, "Dump decoded headers")
	flag.Parse()

	if dir == "" || name == "" {
		flag.PrintDefaults()
		return
	}

	d := vfs.NewDirectoryDriver(dir)
	ms, err := pack.LoadModelSet(d, name)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("model %q checksum 0x%.8x version %d\n",
		ms.Mdl.Header.Name, uint32(ms.Mdl.Header.Checksum), ms.Mdl.Header.Version)
	fmt.Printf("bones %d bodyparts %d textures %d sequences %d lods %d\n",
		len(ms.Mdl.Bones), len(ms.Mdl.BodyParts), len(ms.Mdl.Textures),
		len(ms.Mdl.Sequences), ms.Lods())

	m, err := ms.Assemble(lod)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("lod %d: %d vertices %d triangles\n",
		lod, m.VertexCount(), m.TriangleCount())
	min, max := m.BoundingBox()
	fmt.Printf("bounds %v .. %v\n", min, max)
	for _, bp := range m.BodyParts {
		for _, sm := range bp.Models {
			for _, mesh := range sm.Meshes {
				fmt.Printf("  %s/%s material %q verts %d tris %d\n",
					bp.Name, sm.Name, mesh.MaterialName,
					len(mesh.Vertices), len(mesh.Indices)/3)
				for _, c := range m.MaterialCandidates(mesh.MaterialName) {
					fmt.Printf("    %s\n", c)
				}
			}
		}
	}

	if dump {
		utils.Dump(ms.Mdl)
	}
}
