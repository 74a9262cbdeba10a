package main

import (
	"flag"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/config"
	"github.com/sourcetool/mdlbrowser/vfs"
	"github.com/sourcetool/mdlbrowser/web"
)

func main() {
	var addr, dir, webPath, settingsPath, encoding string
	var lod int
	flag.StringVar(&addr, "i", "", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to folder with model files")
	flag.StringVar(&webPath, "web", "", "Path to web interface files")
	flag.StringVar(&settingsPath, "settings", "mdlbrowser.yaml", "Path to settings file")
	flag.StringVar(&encoding, "encoding", "", "Single byte string encoding override")
	flag.IntVar(&lod, "lod", -1, "Preferred level of detail")
	flag.Parse()

	if err := config.LoadSettings(settingsPath); err != nil && !os.IsNotExist(errors.Cause(err)) {
		log.Printf("[main] %v", err)
	}

	s := config.GetSettings()
	if addr != "" {
		s.ListenAddr = addr
	}
	if dir != "" {
		s.ModelsDir = dir
	}
	if webPath != "" {
		s.WebDir = webPath
	}
	if lod >= 0 {
		s.PreferredLod = lod
	}
	config.SetSettings(s)

	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatal(err)
		}
	}

	if s.ModelsDir == "" {
		flag.PrintDefaults()
		return
	}

	d := vfs.NewDirectoryDriver(s.ModelsDir)

	if err := web.StartServer(s.ListenAddr, d, s.WebDir); err != nil {
		log.Fatal(err)
	}
}
