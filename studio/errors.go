package studio

import "fmt"

// BadMagicError means the file does not start with the expected format tag.
type BadMagicError struct {
	File  string
	Found uint32
	Want  uint32
}

func (e *BadMagicError) Error() string {
	return fmt.Sprintf("%s: bad magic 0x%.8x, want 0x%.8x", e.File, e.Found, e.Want)
}

// UnsupportedVersionError names the version found and the supported range.
// Unknown future versions are rejected instead of guessed at.
type UnsupportedVersionError struct {
	File  string
	Found int32
	Min   int32
	Max   int32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: unsupported version %d, supported %d..%d", e.File, e.Found, e.Min, e.Max)
}

// CorruptError marks an offset or count that points outside the buffer.
// Field names which structural assumption failed.
type CorruptError struct {
	File  string
	Field string
	Err   error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: corrupt %s: %v", e.File, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: corrupt %s", e.File, e.Field)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func Corrupt(file, field string, err error) *CorruptError {
	return &CorruptError{File: file, Field: field, Err: err}
}

// MismatchedFileSetError means the three companion files do not come from
// the same compile, their header checksums disagree.
type MismatchedFileSetError struct {
	MdlChecksum int32
	VvdChecksum int32
	VtxChecksum int32
}

func (e *MismatchedFileSetError) Error() string {
	return fmt.Sprintf("file set checksums disagree: mdl %#x, vvd %#x, vtx %#x",
		e.MdlChecksum, e.VvdChecksum, e.VtxChecksum)
}

// DanglingVertexReferenceError reports geometry selecting a vertex that the
// vertex file does not provide at the requested level of detail.
type DanglingVertexReferenceError struct {
	Index int
	Lod   int
}

func (e *DanglingVertexReferenceError) Error() string {
	return fmt.Sprintf("vertex %d is not present at lod %d", e.Index, e.Lod)
}

// StructuralMismatchError means the bodypart, model or mesh trees of the
// companion files do not line up position by position.
type StructuralMismatchError struct {
	Detail string
}

func (e *StructuralMismatchError) Error() string {
	return "file set shape mismatch: " + e.Detail
}

// WeightSumMismatchError reports a vertex whose bone weights drift outside
// the renormalization band.
type WeightSumMismatchError struct {
	Vertex int
	Sum    float32
}

func (e *WeightSumMismatchError) Error() string {
	return fmt.Sprintf("vertex %d: bone weight sum %g outside tolerance", e.Vertex, e.Sum)
}
