package mdl

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/sourcetool/mdlbrowser/binread"
	"github.com/sourcetool/mdlbrowser/studio"
	"github.com/sourcetool/mdlbrowser/utils"
)

const BONE_SIZE = 216

const (
	PROC_AXISINTERP = 1
	PROC_QUATINTERP = 2
	PROC_AIMATBONE  = 3
	PROC_AIMATATTACH = 4
	PROC_JIGGLE     = 5
)

const (
	BONE_USED_BY_VERTEX_LOD0 = 0x00000400
	BONE_USED_BY_ANYTHING    = 0x0007FFFF
	BONE_ALWAYS_PROCEDURAL   = 0x00080000
	BONE_FIXED_ALIGNMENT     = 0x00100000
)

type Bone struct {
	Name   string
	Parent int32

	BoneController [6]int32

	Position      mgl32.Vec3
	Quat          mgl32.Quat
	Rotation      mgl32.Vec3
	PositionScale mgl32.Vec3
	RotationScale mgl32.Vec3

	PoseToBone studio.Mat34
	QAlignment mgl32.Quat

	Flags uint32

	ProcType int32
	ProcRule interface{}

	PhysicsBone int32
	SurfaceProp string
	Contents    int32
}

type AxisInterpRule struct {
	Control int32
	Axis    int32
	Pos     [6]mgl32.Vec3
	Quat    [6]mgl32.Quat
}

type QuatInterpRule struct {
	Control  int32
	Triggers []QuatInterpTrigger
}

type QuatInterpTrigger struct {
	InvTolerance float32
	Trigger      mgl32.Quat
	Pos          mgl32.Vec3
	Quat         mgl32.Quat
}

type AimAtRule struct {
	Parent    int32
	Aim       int32
	AimVector mgl32.Vec3
	UpVector  mgl32.Vec3
	BasePos   mgl32.Vec3
}

type JiggleRule struct {
	Flags  int32
	Length float32
	TipMass float32

	YawStiffness    float32
	YawDamping      float32
	PitchStiffness  float32
	PitchDamping    float32
	AlongStiffness  float32
	AlongDamping    float32

	AngleLimit float32

	MinYaw              float32
	MaxYaw              float32
	YawFriction         float32
	YawBounce           float32
	MinPitch            float32
	MaxPitch            float32
	PitchFriction       float32
	PitchBounce         float32

	BaseMass        float32
	BaseStiffness   float32
	BaseDamping     float32
	BaseMinLeft     float32
	BaseMaxLeft     float32
	BaseLeftFriction float32
	BaseMinUp       float32
	BaseMaxUp       float32
	BaseUpFriction  float32
	BaseMinForward  float32
	BaseMaxForward  float32
	BaseForwardFriction float32
}

func quat(r *binread.Reader) (mgl32.Quat, error) {
	v, err := r.Vec4()
	if err != nil {
		return mgl32.Quat{}, err
	}
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}, nil
}

func decodeBones(r *binread.Reader, t *tables) ([]Bone, error) {
	bones := make([]Bone, t.Bones.Count)
	err := r.Array(int(t.Bones.Offset), int(t.Bones.Count), BONE_SIZE, func(i int, er *binread.Reader) error {
		b := &bones[i]

		nameOff, _ := er.I32()
		var err error
		if b.Name, err = er.Sub(int(nameOff)).StringZ(256); err != nil {
			return studio.Corrupt(FILE, "bone name", err)
		}

		b.Parent, _ = er.I32()
		for j := range b.BoneController {
			b.BoneController[j], _ = er.I32()
		}
		if b.Position, err = vec3(er); err != nil {
			return err
		}
		if b.Quat, err = quat(er); err != nil {
			return err
		}
		if b.Rotation, err = vec3(er); err != nil {
			return err
		}
		if b.PositionScale, err = vec3(er); err != nil {
			return err
		}
		if b.RotationScale, err = vec3(er); err != nil {
			return err
		}
		for j := range b.PoseToBone {
			b.PoseToBone[j], _ = er.F32()
		}
		if b.QAlignment, err = quat(er); err != nil {
			return err
		}
		flags, _ := er.U32()
		b.Flags = flags

		b.ProcType, _ = er.I32()
		procOff, _ := er.I32()
		b.PhysicsBone, _ = er.I32()

		surfOff, _ := er.I32()
		if surfOff != 0 {
			if b.SurfaceProp, err = er.Sub(int(surfOff)).StringZ(256); err != nil {
				return studio.Corrupt(FILE, "bone surfaceprop", err)
			}
		}
		if b.Contents, err = er.I32(); err != nil {
			return err
		}

		if b.ProcType != 0 {
			if b.ProcRule, err = decodeProcRule(er.Sub(int(procOff)), b.ProcType); err != nil {
				return errors.Wrapf(err, "bone %q procedural rule", b.Name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range bones {
		p := bones[i].Parent
		if p < -1 || int(p) >= len(bones) {
			return nil, studio.Corrupt(FILE, "bone parent", errors.Errorf("bone %d parent %d out of range", i, p))
		}
	}
	// walk each chain to the root; more hops than bones means a cycle
	for i := range bones {
		hops := 0
		for p := bones[i].Parent; p != -1; p = bones[p].Parent {
			if hops++; hops > len(bones) {
				return nil, studio.Corrupt(FILE, "bone parent", errors.Errorf("cycle through bone %d", i))
			}
		}
	}
	return bones, nil
}

func decodeProcRule(r *binread.Reader, procType int32) (interface{}, error) {
	switch procType {
	case PROC_AXISINTERP:
		var rule AxisInterpRule
		rule.Control, _ = r.I32()
		rule.Axis, _ = r.I32()
		var err error
		for j := range rule.Pos {
			if rule.Pos[j], err = vec3(r); err != nil {
				return nil, err
			}
		}
		for j := range rule.Quat {
			if rule.Quat[j], err = quat(r); err != nil {
				return nil, err
			}
		}
		return &rule, nil
	case PROC_QUATINTERP:
		var rule QuatInterpRule
		rule.Control, _ = r.I32()
		count, _ := r.I32()
		off, err := r.I32()
		if err != nil {
			return nil, err
		}
		rule.Triggers = make([]QuatInterpTrigger, count)
		err = r.Array(int(off), int(count), 60, func(i int, er *binread.Reader) error {
			tr := &rule.Triggers[i]
			tr.InvTolerance, _ = er.F32()
			var err error
			if tr.Trigger, err = quat(er); err != nil {
				return err
			}
			if tr.Pos, err = vec3(er); err != nil {
				return err
			}
			tr.Quat, err = quat(er)
			return err
		})
		if err != nil {
			return nil, err
		}
		return &rule, nil
	case PROC_AIMATBONE, PROC_AIMATATTACH:
		var rule AimAtRule
		rule.Parent, _ = r.I32()
		rule.Aim, _ = r.I32()
		var err error
		if rule.AimVector, err = vec3(r); err != nil {
			return nil, err
		}
		if rule.UpVector, err = vec3(r); err != nil {
			return nil, err
		}
		if rule.BasePos, err = vec3(r); err != nil {
			return nil, err
		}
		return &rule, nil
	case PROC_JIGGLE:
		var rule JiggleRule
		for _, dst := range []interface{}{
			&rule.Flags, &rule.Length, &rule.TipMass,
			&rule.YawStiffness, &rule.YawDamping,
			&rule.PitchStiffness, &rule.PitchDamping,
			&rule.AlongStiffness, &rule.AlongDamping,
			&rule.AngleLimit,
			&rule.MinYaw, &rule.MaxYaw, &rule.YawFriction, &rule.YawBounce,
			&rule.MinPitch, &rule.MaxPitch, &rule.PitchFriction, &rule.PitchBounce,
			&rule.BaseMass, &rule.BaseStiffness, &rule.BaseDamping,
			&rule.BaseMinLeft, &rule.BaseMaxLeft, &rule.BaseLeftFriction,
			&rule.BaseMinUp, &rule.BaseMaxUp, &rule.BaseUpFriction,
			&rule.BaseMinForward, &rule.BaseMaxForward, &rule.BaseForwardFriction,
		} {
			var err error
			switch p := dst.(type) {
			case *int32:
				*p, err = r.I32()
			case *float32:
				*p, err = r.F32()
			}
			if err != nil {
				return nil, err
			}
		}
		return &rule, nil
	}
	return nil, errors.Errorf("unknown procedural bone type %d", procType)
}

// EulerAngles reports the bind pose rotation in degrees, handy for dumps.
// Some compilers zero the euler fields and store only the quaternion.
func (b *Bone) EulerAngles() mgl32.Vec3 {
	if b.Rotation == (mgl32.Vec3{}) && b.Quat != (mgl32.Quat{}) {
		return utils.RadiansToDegreesV3(utils.QuatToEuler(b.Quat))
	}
	return utils.RadiansToDegreesV3(b.Rotation)
}
