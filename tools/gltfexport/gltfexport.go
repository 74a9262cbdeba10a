package main

import (
	"flag"
	"log"
	"os"
	"path"
	"strings"

	"github.com/sourcetool/mdlbrowser/pack"
	"github.com/sourcetool/mdlbrowser/vfs"
)

func main() {
	var dir, name, out, format string
	var lod int
	flag.StringVar(&dir, "dir", "", "Path to folder with model files")
	flag.StringVar(&name, "model", "", "Model base name (without .mdl)")
	flag.StringVar(&out, "o", "", "Output file (default <model>.<format>)")
	flag.StringVar(&format, "format", "glb", "Output format: glb, obj or fbx")
	flag.IntVar(&lod, "lod", 0, "Level of detail to export")
	flag.Parse()

	if dir == "" || name == "" {
		flag.PrintDefaults()
		return
	}
	if out == "" {
		out = path.Base(name) + "." + format
	}

	d := vfs.NewDirectoryDriver(dir)
	ms, err := pack.LoadModelSet(d, name)
	if err != nil {
		log.Fatal(err)
	}
	m, err := ms.Assemble(lod)
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "glb":
		err = m.WriteGLB(f)
	case "obj":
		err = m.WriteOBJ(f)
	case "fbx":
		err = m.WriteFbx(f)
	default:
		log.Fatalf("Unknown format %q", format)
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Saved lod %d of %q to %s (%d triangles)", lod, name, out, m.TriangleCount())
}
