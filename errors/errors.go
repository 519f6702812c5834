// Package errors defines all exported error sentinels for the fleece library.
//
// This is the single source of truth for error values. The top-level
// fleece package imports from here; the hamt subpackage does not, since
// none of its operations return an error.
package errors

import "errors"

// Encoder errors (spec §7)
var (
	ErrInvalidValue = errors.New("fleece: invalid value (NaN, unsupported type, or malformed input)")
	ErrNeedKey      = errors.New("fleece: a key is required inside a dictionary before a value")
	ErrNoKeyHere    = errors.New("fleece: a key is not allowed here (not inside a dictionary, or a key is already pending)")
	ErrUnbalanced   = errors.New("fleece: unbalanced begin/end collection calls")
	ErrEmptyStack   = errors.New("fleece: End called with no open document")
	ErrNotFinished  = errors.New("fleece: encoder has not been finished with End")
)

// Reader errors
var (
	ErrTruncated       = errors.New("fleece: data is truncated or too short to contain a value")
	ErrBadTag          = errors.New("fleece: unrecognized value tag")
	ErrNotAnArray      = errors.New("fleece: value is not an array")
	ErrNotADict        = errors.New("fleece: value is not a dict")
	ErrIndexOutOfRange = errors.New("fleece: array/dict index out of range")
	ErrKeyNotFound     = errors.New("fleece: key not found in dict")
)

// HAMT errors
var (
	ErrHashCollision = errors.New("fleece: hamt key hashes collide beyond the trie's addressable depth")
	ErrKeyNotInTree  = errors.New("fleece: hamt key not found")
	ErrNodeOverflow  = errors.New("fleece: hamt node exceeds 64 children")
)

// I/O errors
var (
	ErrFileTooShort = errors.New("fleece: file is too short to contain a trailer")
	ErrReaderClosed = errors.New("fleece: reader is closed")
)
