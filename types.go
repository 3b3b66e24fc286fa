package evfs

import "time"

// OpenFlag controls how Backend.Open treats an existing or missing file.
type OpenFlag int

// Open flags, combinable with bitwise OR.
const (
	Read    OpenFlag = 1 << iota // O_READ
	Write                        // O_WRITE
	NoExist                      // fail if the file already exists
	Overwrite                    // truncate to zero length on open
	Append                       // all writes go to the end of the file
	openOrNewBit
)

// ReadWrite is the combination of Read and Write.
const ReadWrite = Read | Write

// OpenOrNew creates the file if it doesn't exist, without erroring if it does.
const OpenOrNew = openOrNewBit

// SeekOrigin selects the reference point for File.Seek.
type SeekOrigin int

const (
	// SeekTo seeks to an absolute offset from the start of the file.
	SeekTo SeekOrigin = iota
	// SeekRel seeks relative to the current position.
	SeekRel
	// SeekRev seeks to size-offset, i.e. offset bytes back from the end.
	SeekRev
)

// InfoFields is a capability bitmask reported by a backend's Ctrl(GetStatFields)
// / Ctrl(GetDirFields), telling the caller which Info fields are meaningful.
type InfoFields uint

const (
	HasName InfoFields = 1 << iota
	HasSize
	HasModTime
	HasType
)

// TypeBits classifies a directory entry. Only the directory bit is defined;
// everything else is "regular" by omission.
type TypeBits uint

const (
	TypeDir TypeBits = 1 << iota
)

// Info describes a file or directory entry returned by Stat or a directory
// Read. Fields not covered by the backend's capability mask are zero.
type Info struct {
	Name    string // borrowed: valid until the next Read/Close on the dir handle it came from
	Size    int64
	ModTime time.Time
	Type    TypeBits
	Fields  InfoFields
}

// IsDir reports whether Info describes a directory.
func (i Info) IsDir() bool { return i.Type&TypeDir != 0 }

// CtrlCmd identifies a control command sent to a backend, file or dir
// handle. IDs below 200 are generic, 200-299 are shim-specific, 300+ are
// file-level.
type CtrlCmd int

const (
	CtrlGetStatFields CtrlCmd = iota + 1
	CtrlGetDirFields
	CtrlUnregister // unregistration id; Registry itself notifies a removed backend via Unregisterable, not this command
)

const (
	// CtrlShimBase is the first shim-specific control command id.
	CtrlShimBase CtrlCmd = 200
	// CtrlFileBase is the first file-level control command id.
	CtrlFileBase CtrlCmd = 300
	// CtrlGetRsrcAddr returns a borrowed pointer to a file's backing bytes,
	// for in-memory-backed readers (e.g. a romfs mounted over a
	// romfs.MemSource).
	CtrlGetRsrcAddr CtrlCmd = CtrlFileBase + 1
)
