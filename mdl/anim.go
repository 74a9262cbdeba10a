package mdl

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
)

const (
	SEQUENCE_SIZE = 212
	ANIMDESC_SIZE = 100
)

const (
	ANIM_LOOPING  = 0x0001
	ANIM_SNAP     = 0x0002
	ANIM_DELTA    = 0x0004
	ANIM_AUTOPLAY = 0x0008
)

// Sequence is the declarative half of an animation, the part that names
// an activity and blends animation descriptors together.
type Sequence struct {
	Label        string
	ActivityName string

	Flags          int32
	Activity       int32
	ActivityWeight int32

	BBMin mgl32.Vec3
	BBMax mgl32.Vec3

	NumBlends   int32
	FadeInTime  float32
	FadeOutTime float32
}

type AnimationDesc struct {
	Name       string
	FPS        float32
	Flags      int32
	FrameCount int32
}

func decodeSequences(r *binread.Reader, t *tables) ([]Sequence, error) {
	seqs := make([]Sequence, t.LocalSeq.Count)
	err := r.Array(int(t.LocalSeq.Offset), int(t.LocalSeq.Count), SEQUENCE_SIZE, func(i int, er *binread.Reader) error {
		s := &seqs[i]

		er.Skip(4) // baseptr
		labelOff, _ := er.I32()
		activityOff, _ := er.I32()

		var err error
		if s.Label, err = er.Sub(int(labelOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "sequence label", err)
		}
		if s.ActivityName, err = er.Sub(int(activityOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "sequence activity name", err)
		}

		s.Flags, _ = er.I32()
		s.Activity, _ = er.I32()
		s.ActivityWeight, _ = er.I32()
		er.Skip(2 * 4) // events
		if s.BBMin, err = vec3(er); err != nil {
			return err
		}
		if s.BBMax, err = vec3(er); err != nil {
			return err
		}
		s.NumBlends, _ = er.I32()
		// blend table, pose parameters
		er.Skip(4 + 4 + 2*4 + 2*4 + 2*4 + 2*4 + 4)
		s.FadeInTime, _ = er.F32()
		s.FadeOutTime, err = er.F32()
		return err
	})
	if err != nil {
		return nil, err
	}
	return seqs, nil
}

func decodeAnimations(r *binread.Reader, t *tables) ([]AnimationDesc, error) {
	anims := make([]AnimationDesc, t.LocalAnim.Count)
	err := r.Array(int(t.LocalAnim.Offset), int(t.LocalAnim.Count), ANIMDESC_SIZE, func(i int, er *binread.Reader) error {
		a := &anims[i]

		er.Skip(4) // baseptr
		nameOff, _ := er.I32()
		var err error
		if a.Name, err = er.Sub(int(nameOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "animation name", err)
		}

		a.FPS, _ = er.F32()
		a.Flags, _ = er.I32()
		a.FrameCount, err = er.I32()
		return err
	})
	if err != nil {
		return nil, err
	}
	return anims, nil
}
