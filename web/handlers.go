package web

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/config"
	"github.com/sourcetool/mdlbrowser/pack"
	"github.com/sourcetool/mdlbrowser/status"
	"github.com/sourcetool/mdlbrowser/webutils"
)

func HandlerAjaxModels(w http.ResponseWriter, r *http.Request) {
	if models, err := pack.ListModels(ServerDirectory); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, models)
	}
}

type ajaxBone struct {
	Name   string
	Parent int32
}

type ajaxSequence struct {
	Label    string
	Activity string
}

type ajaxModelInfo struct {
	Name        string
	Version     int32
	Checksum    int32
	Mass        float32
	SurfaceProp string

	Lods        int
	Bones       []ajaxBone
	Materials   []string
	SearchPaths []string
	SkinCount   int
	Sequences   []ajaxSequence
	Attachments []string
}

func modelInfo(ms *pack.ModelSet) *ajaxModelInfo {
	info := &ajaxModelInfo{
		Name:        ms.Mdl.Header.Name,
		Version:     ms.Mdl.Header.Version,
		Checksum:    ms.Mdl.Header.Checksum,
		Mass:        ms.Mdl.Header.Mass,
		SurfaceProp: ms.Mdl.SurfaceProp,
		Lods:        ms.Lods(),
		SearchPaths: ms.Mdl.TextureDirs,
		SkinCount:   len(ms.Mdl.SkinFamilies),
	}
	for i := range ms.Mdl.Bones {
		info.Bones = append(info.Bones, ajaxBone{
			Name:   ms.Mdl.Bones[i].Name,
			Parent: ms.Mdl.Bones[i].Parent,
		})
	}
	for i := range ms.Mdl.Textures {
		info.Materials = append(info.Materials, ms.Mdl.Textures[i].Name)
	}
	for i := range ms.Mdl.Sequences {
		info.Sequences = append(info.Sequences, ajaxSequence{
			Label:    ms.Mdl.Sequences[i].Label,
			Activity: ms.Mdl.Sequences[i].ActivityName,
		})
	}
	for i := range ms.Mdl.Attachments {
		info.Attachments = append(info.Attachments, ms.Mdl.Attachments[i].Name)
	}
	return info
}

func loadModelSet(r *http.Request) (*pack.ModelSet, error) {
	name := mux.Vars(r)["model"]
	ms, err := pack.LoadModelSet(ServerDirectory, name)
	if err != nil {
		return nil, errors.Wrapf(err, "model %q", name)
	}
	return ms, nil
}

func requestLod(r *http.Request, ms *pack.ModelSet) int {
	lod := config.GetSettings().PreferredLod
	if s, ok := mux.Vars(r)["lod"]; ok {
		if v, err := strconv.Atoi(s); err == nil {
			lod = v
		}
	}
	if lod >= ms.Lods() {
		lod = ms.Lods() - 1
	}
	if lod < 0 {
		lod = 0
	}
	return lod
}

func HandlerAjaxModelInfo(w http.ResponseWriter, r *http.Request) {
	ms, err := loadModelSet(r)
	if err != nil {
		log.Printf("[web] %v", err)
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, modelInfo(ms))
}

type ajaxMesh struct {
	Material  string
	Vertices  int
	Triangles int
}

type ajaxLod struct {
	Lod    int
	Meshes []ajaxMesh
}

func HandlerAjaxModelLod(w http.ResponseWriter, r *http.Request) {
	ms, err := loadModelSet(r)
	if err != nil {
		log.Printf("[web] %v", err)
		webutils.WriteError(w, err)
		return
	}
	lod := requestLod(r, ms)
	m, err := ms.Assemble(lod)
	if err != nil {
		log.Printf("[web] assemble %q lod %d: %v", ms.Name, lod, err)
		webutils.WriteError(w, err)
		return
	}

	result := &ajaxLod{Lod: lod}
	for i := range m.BodyParts {
		for j := range m.BodyParts[i].Models {
			for k := range m.BodyParts[i].Models[j].Meshes {
				mesh := &m.BodyParts[i].Models[j].Meshes[k]
				result.Meshes = append(result.Meshes, ajaxMesh{
					Material:  mesh.MaterialName,
					Vertices:  len(mesh.Vertices),
					Triangles: len(mesh.Indices) / 3,
				})
			}
		}
	}
	webutils.WriteJson(w, result)
}

func assembleForDump(w http.ResponseWriter, r *http.Request) (*pack.ModelSet, int, bool) {
	ms, err := loadModelSet(r)
	if err != nil {
		log.Printf("[web] %v", err)
		webutils.WriteError(w, err)
		return nil, 0, false
	}
	return ms, requestLod(r, ms), true
}

func HandlerDumpModelGltf(w http.ResponseWriter, r *http.Request) {
	ms, lod, ok := assembleForDump(w, r)
	if !ok {
		return
	}
	m, err := ms.Assemble(lod)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	status.Info("Exporting %s as gltf", ms.Name)

	var buf bytes.Buffer
	if err := m.WriteGLB(&buf); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, ms.Name+".glb")
}

func HandlerDumpModelObj(w http.ResponseWriter, r *http.Request) {
	ms, lod, ok := assembleForDump(w, r)
	if !ok {
		return
	}
	m, err := ms.Assemble(lod)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	status.Info("Exporting %s as obj", ms.Name)

	var buf bytes.Buffer
	if err := m.WriteOBJ(&buf); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, ms.Name+".obj")
}

func HandlerDumpModelFbx(w http.ResponseWriter, r *http.Request) {
	ms, lod, ok := assembleForDump(w, r)
	if !ok {
		return
	}
	m, err := ms.Assemble(lod)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	status.Info("Exporting %s as fbx", ms.Name)

	f := m.ExportFbxDefault()

	var manifest bytes.Buffer
	for _, dir := range m.MaterialSearchPaths {
		fmt.Fprintf(&manifest, "searchdir %s\n", dir)
	}
	for _, bp := range m.BodyParts {
		for _, sm := range bp.Models {
			for _, mesh := range sm.Meshes {
				fmt.Fprintf(&manifest, "material %s\n", mesh.MaterialName)
			}
		}
	}
	f.AddExportFile("materials.txt", manifest.Bytes())

	var buf bytes.Buffer
	if err := f.WriteZip(&buf, ms.Name+".fbx"); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, ms.Name+".fbx.zip")
}

func HandlerDumpModelInfo(w http.ResponseWriter, r *http.Request) {
	ms, err := loadModelSet(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJsonFile(w, modelInfo(ms), ms.Name)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func HandlerWebsocketStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	status.NewClient(conn)
}
