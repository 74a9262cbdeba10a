package mdl

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
)

const (
	ATTACHMENT_SIZE = 92
	HITBOXSET_SIZE  = 12
	HITBOX_SIZE     = 68
)

type Attachment struct {
	Name      string
	Flags     uint32
	LocalBone int32
	Local     studio.Mat34
}

type HitboxSet struct {
	Name     string
	Hitboxes []Hitbox
}

type Hitbox struct {
	Bone  int32
	Group int32
	BBMin mgl32.Vec3
	BBMax mgl32.Vec3
	Name  string
}

func decodeAttachments(r *binread.Reader, t *tables, boneCount int) ([]Attachment, error) {
	attachments := make([]Attachment, t.Attachments.Count)
	err := r.Array(int(t.Attachments.Offset), int(t.Attachments.Count), ATTACHMENT_SIZE, func(i int, er *binread.Reader) error {
		a := &attachments[i]

		nameOff, _ := er.I32()
		var err error
		if a.Name, err = er.Sub(int(nameOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "attachment name", err)
		}

		a.Flags, _ = er.U32()
		a.LocalBone, _ = er.I32()
		if a.LocalBone < 0 || int(a.LocalBone) >= boneCount {
			return studio.Corrupt(FILE, "attachment bone",
				errors.Errorf("attachment %q bone %d of %d", a.Name, a.LocalBone, boneCount))
		}
		for j := range a.Local {
			if a.Local[j], err = er.F32(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func decodeHitboxSets(r *binread.Reader, t *tables, boneCount int) ([]HitboxSet, error) {
	sets := make([]HitboxSet, t.HitboxSets.Count)
	err := r.Array(int(t.HitboxSets.Offset), int(t.HitboxSets.Count), HITBOXSET_SIZE, func(i int, er *binread.Reader) error {
		set := &sets[i]

		nameOff, _ := er.I32()
		var err error
		if set.Name, err = er.Sub(int(nameOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "hitbox set name", err)
		}

		count, _ := er.I32()
		off, err := er.I32()
		if err != nil {
			return err
		}

		set.Hitboxes = make([]Hitbox, count)
		return er.Array(int(off), int(count), HITBOX_SIZE, func(j int, hr *binread.Reader) error {
			hb := &set.Hitboxes[j]
			hb.Bone, _ = hr.I32()
			if hb.Bone < 0 || int(hb.Bone) >= boneCount {
				return studio.Corrupt(FILE, "hitbox bone",
					errors.Errorf("set %q hitbox %d bone %d of %d", set.Name, j, hb.Bone, boneCount))
			}
			hb.Group, _ = hr.I32()
			var err error
			if hb.BBMin, err = vec3(hr); err != nil {
				return err
			}
			if hb.BBMax, err = vec3(hr); err != nil {
				return err
			}
			hbNameOff, err := hr.I32()
			if err != nil {
				return err
			}
			if hbNameOff != 0 {
				if hb.Name, err = hr.Sub(int(hbNameOff)).StringZ(256); err != nil {
					return studio.Corrupt(FILE, "hitbox name", err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}
