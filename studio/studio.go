package studio

// Compiled model limits shared by the mdl, vvd and vtx decoders.
const (
	MaxLods           = 8
	MaxBonesPerVertex = 3
)

// Mat34 is a row major 3x4 bone transform, three rows of [x y z translate].
type Mat34 [12]float32

func (m Mat34) Row(i int) [4]float32 {
	return [4]float32{m[i*4], m[i*4+1], m[i*4+2], m[i*4+3]}
}
