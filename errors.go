package evfs

import "errors"

// Kind enumerates the failure kinds a backend or the registry can surface.
// Done and Ok are not failures: Done signals clean exhaustion (e.g. a
// directory read past the last entry) and Ok signals success.
type Kind int

// Error kinds. Values are not part of the API contract,
// only the identities are; callers should compare against the Err* sentinels
// below, not against Kind values directly.
const (
	Done Kind = iota - 1
	Ok
	KindGeneric
	KindUnsupported
	KindNoVfs
	KindIO
	KindCorruption
	KindNoFile
	KindExists
	KindNoPath
	KindIsDir
	KindNotEmpty
	KindOverflow
	KindBadArg
	KindFsFull
	KindAlloc
	KindTooLong
	KindAuth
	KindBadName
	KindInit
	KindDisabled
	KindInvalid
	KindRepaired
)

// Error is the concrete error type carrying a Kind plus an optional
// underlying cause and op/path context, mirroring the PathError idiom seen
// throughout the teacher's backends (fs.ErrorObjectNotFound wrapped with
// fmt.Errorf("...: %w", err)).
type Error struct {
	Kind Kind
	Op   string // operation being attempted, e.g. "open", "stat"
	Path string // path involved, if any
	Err  error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel for the same Kind, so callers can
// write errors.Is(err, evfs.ErrNoFile) regardless of Op/Path/Err context.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Kind == e.Kind && te.Op == "" && te.Path == "" && te.Err == nil
}

func (k Kind) String() string {
	switch k {
	case Done:
		return "done"
	case Ok:
		return "ok"
	case KindGeneric:
		return "generic error"
	case KindUnsupported:
		return "unsupported"
	case KindNoVfs:
		return "no such vfs"
	case KindIO:
		return "I/O error"
	case KindCorruption:
		return "corruption"
	case KindNoFile:
		return "no such file"
	case KindExists:
		return "already exists"
	case KindNoPath:
		return "no such path"
	case KindIsDir:
		return "is a directory"
	case KindNotEmpty:
		return "directory not empty"
	case KindOverflow:
		return "overflow"
	case KindBadArg:
		return "bad argument"
	case KindFsFull:
		return "filesystem full"
	case KindAlloc:
		return "allocation failure"
	case KindTooLong:
		return "name too long"
	case KindAuth:
		return "auth failure"
	case KindBadName:
		return "bad name"
	case KindInit:
		return "init failure"
	case KindDisabled:
		return "disabled"
	case KindInvalid:
		return "invalid"
	case KindRepaired:
		return "repaired"
	default:
		return "unknown error"
	}
}

// Sentinel errors for errors.Is comparisons. These are the values backends
// and callers should compare against; construct richer *Error values with
// New/Wrap for returning.
var (
	ErrDone        = &Error{Kind: Done}
	ErrUnsupported = &Error{Kind: KindUnsupported}
	ErrNoVfs       = &Error{Kind: KindNoVfs}
	ErrIO          = &Error{Kind: KindIO}
	ErrCorruption  = &Error{Kind: KindCorruption}
	ErrNoFile      = &Error{Kind: KindNoFile}
	ErrExists      = &Error{Kind: KindExists}
	ErrNoPath      = &Error{Kind: KindNoPath}
	ErrIsDir       = &Error{Kind: KindIsDir}
	ErrNotEmpty    = &Error{Kind: KindNotEmpty}
	ErrOverflow    = &Error{Kind: KindOverflow}
	ErrBadArg      = &Error{Kind: KindBadArg}
	ErrFsFull      = &Error{Kind: KindFsFull}
	ErrAlloc       = &Error{Kind: KindAlloc}
	ErrTooLong     = &Error{Kind: KindTooLong}
	ErrAuth        = &Error{Kind: KindAuth}
	ErrBadName     = &Error{Kind: KindBadName}
	ErrInit        = &Error{Kind: KindInit}
	ErrDisabled    = &Error{Kind: KindDisabled}
	ErrInvalid     = &Error{Kind: KindInvalid}
	ErrRepaired    = &Error{Kind: KindRepaired}
)

// New builds an *Error for the given kind with op/path context.
func New(kind Kind, op, path string) *Error {
	return &Error{Kind: kind, Op: op, Path: path}
}

// Wrap builds an *Error for the given kind, op and path, wrapping cause.
func Wrap(kind Kind, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// Is is a package-level convenience over errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
