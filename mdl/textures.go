package mdl

import (
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
)

const TEXTURE_SIZE = 64

type Texture struct {
	Name  string
	Flags int32
	Used  int32
}

func decodeTextures(r *binread.Reader, t *tables) ([]Texture, error) {
	textures := make([]Texture, t.Textures.Count)
	err := r.Array(int(t.Textures.Offset), int(t.Textures.Count), TEXTURE_SIZE, func(i int, er *binread.Reader) error {
		tex := &textures[i]
		nameOff, _ := er.I32()
		var err error
		if tex.Name, err = er.Sub(int(nameOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "texture name", err)
		}
		tex.Flags, _ = er.I32()
		tex.Used, err = er.I32()
		return err
	})
	if err != nil {
		return nil, err
	}
	return textures, nil
}

// decodeTextureDirs reads the material search path table. Offsets here are
// absolute within the file, unlike the record relative name offsets
// everywhere else. A zero offset stands for an empty path.
func decodeTextureDirs(r *binread.Reader, t *tables) ([]string, error) {
	dirs := make([]string, t.TextureDirs.Count)
	err := r.Array(int(t.TextureDirs.Offset), int(t.TextureDirs.Count), 4, func(i int, er *binread.Reader) error {
		off, err := er.I32()
		if err != nil {
			return err
		}
		if off == 0 {
			return nil
		}
		if dirs[i], err = r.Sub(int(off)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "texture dir", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// decodeSkinFamilies reads the skin table, one row of material indexes per
// family. Every entry must point at a decoded texture.
func decodeSkinFamilies(r *binread.Reader, t *tables, textureCount int) ([][]uint16, error) {
	families := make([][]uint16, t.SkinFamilyCount)
	sr, err := r.SubRange(int(t.SkinRefOffset), int(t.SkinFamilyCount)*int(t.SkinRefCount)*2)
	if err != nil {
		return nil, studio.Corrupt(FILE, "skin table", err)
	}
	for f := range families {
		row := make([]uint16, t.SkinRefCount)
		for j := range row {
			row[j], _ = sr.U16()
			if int(row[j]) >= textureCount {
				return nil, studio.Corrupt(FILE, "skin table",
					errors.Errorf("family %d ref %d points at material %d of %d", f, j, row[j], textureCount))
			}
		}
		families[f] = row
	}
	return families, nil
}
