package pack

import (
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/mdl"
	"github.com/sourcetool/mdlbrowser/model"
	"github.com/sourcetool/mdlbrowser/vfs"
	"github.com/sourcetool/mdlbrowser/vtx"
	"github.com/sourcetool/mdlbrowser/vvd"
)

// vtxSuffixes in lookup order. The d3d9 build is what shipping games
// carry, the rest are fallbacks from older toolchains.
var vtxSuffixes = []string{".dx90.vtx", ".dx80.vtx", ".sw.vtx", ".vtx"}

// ModelSet is one model's companion file triple, decoded but not yet
// joined.
type ModelSet struct {
	Name string

	Mdl *mdl.Mdl
	Vvd *vvd.Vvd
	Vtx *vtx.Vtx
}

// ListModels reports the base names of every model in the directory,
// sorted. A model counts as present when its .mdl file exists.
func ListModels(d vfs.Directory) ([]string, error) {
	names, err := d.List()
	if err != nil {
		return nil, errors.Wrap(err, "list")
	}
	models := make([]string, 0, 8)
	for _, n := range names {
		if strings.HasSuffix(strings.ToLower(n), ".mdl") {
			models = append(models, n[:len(n)-len(".mdl")])
		}
	}
	sort.Strings(models)
	return models, nil
}

func findVtxName(d vfs.Directory, name string) (string, error) {
	names, err := d.List()
	if err != nil {
		return "", errors.Wrap(err, "list")
	}
	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[strings.ToLower(n)] = struct{}{}
	}
	for _, suffix := range vtxSuffixes {
		if _, ok := present[strings.ToLower(name+suffix)]; ok {
			return name + suffix, nil
		}
	}
	return "", errors.Errorf("no vtx companion for %q", name)
}

// LoadModelSet reads and decodes the three companion files of one model.
// The files decode independently, so the three decoders run concurrently.
func LoadModelSet(d vfs.Directory, name string) (*ModelSet, error) {
	vtxName, err := findVtxName(d, name)
	if err != nil {
		return nil, err
	}

	mdlBuf, err := vfs.DirectoryReadFile(d, name+".mdl")
	if err != nil {
		return nil, err
	}
	vvdBuf, err := vfs.DirectoryReadFile(d, name+".vvd")
	if err != nil {
		return nil, err
	}
	vtxBuf, err := vfs.DirectoryReadFile(d, vtxName)
	if err != nil {
		return nil, err
	}

	ms := &ModelSet{Name: name}
	var mdlErr, vvdErr, vtxErr error

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		ms.Mdl, mdlErr = mdl.Decode(mdlBuf)
	}()
	go func() {
		defer wg.Done()
		ms.Vvd, vvdErr = vvd.Decode(vvdBuf)
	}()
	go func() {
		defer wg.Done()
		ms.Vtx, vtxErr = vtx.Decode(vtxBuf)
	}()
	wg.Wait()

	if mdlErr != nil {
		return nil, errors.Wrapf(mdlErr, "%s.mdl", name)
	}
	if vvdErr != nil {
		return nil, errors.Wrapf(vvdErr, "%s.vvd", name)
	}
	if vtxErr != nil {
		return nil, errors.Wrapf(vtxErr, "%s", vtxName)
	}

	for _, w := range ms.Vvd.Warnings {
		log.Printf("[pack] %s: %s", name, w)
	}
	return ms, nil
}

// Assemble joins the set at one level of detail.
func (ms *ModelSet) Assemble(lod int) (*model.Model, error) {
	return model.Assemble(ms.Mdl, ms.Vvd, ms.Vtx, lod)
}

// Lods reports how many levels of detail the set can assemble.
func (ms *ModelSet) Lods() int {
	n := int(ms.Vtx.NumLods)
	if int(ms.Vvd.NumLods) < n {
		n = int(ms.Vvd.NumLods)
	}
	return n
}
