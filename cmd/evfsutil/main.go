// Command evfsutil is a thin cobra-based CLI that mounts one backend and
// calls it directly; it does not register the backend with the evfs
// registry. It is grounded on the Use/Short/Run cobra.Command shape the teacher uses
// for its own subcommands (backend/torrent/cmd/backend.go's commandDefinition
// plus statsCommand/pauseCommand/resumeCommand) and rclone's "mount a remote
// string, then operate on a path within it" calling convention.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evfs-project/evfs"
	"github.com/evfs-project/evfs/internal/config"
	"github.com/evfs-project/evfs/internal/elog"
	"github.com/evfs-project/evfs/osfs"
	"github.com/evfs-project/evfs/romfs"
	"github.com/evfs-project/evfs/tarfs"
)

var (
	flagBackend string // "os", "romfs:<image>", "tar:<image>"
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "evfsutil",
	Short: "Inspect an EVFS-mounted filesystem from the command line",
	Long: `
evfsutil mounts one backend (the host filesystem, a ROMFS image, or a
TAR archive) and runs a single ls/cat/stat operation directly against it, the way
rclone's own subcommands resolve a remote string before acting on it.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "os",
		`which backend to mount: "os", "romfs:<path>" or "tar:<path>", `+
			`optionally followed by "?key=value,key2=value2" config arguments`)
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")

	rootCmd.AddCommand(lsCommand, catCommand, statCommand)
}

// splitQuery splits "kind:path?key=value,key2=value2" into its spec and
// query-argument halves, the way a backend's registration string carries
// its config:"..." arguments after a "?" separator.
func splitQuery(spec string) (string, config.MapMapper) {
	base, query, ok := strings.Cut(spec, "?")
	if !ok {
		return spec, config.MapMapper{}
	}
	return base, config.ParseQuery(query)
}

func mountBackend() (evfs.Backend, error) {
	if flagVerbose {
		elog.SetLevel(elog.LevelDebug)
	}
	spec, args := splitQuery(flagBackend)

	switch {
	case spec == "os" || spec == "":
		opts := osfs.Options{Name: "os0"}
		if err := config.Set(args, &opts); err != nil {
			return nil, err
		}
		return osfs.New(opts), nil
	case hasPrefix(spec, "romfs:"):
		path := spec[len("romfs:"):]
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		opts := romfs.Options{Name: "rom0", TotalSize: int64(len(buf))}
		if err := config.Set(args, &opts); err != nil {
			return nil, err
		}
		return romfs.Mount(romfs.NewMemSource(buf), opts)
	case hasPrefix(spec, "tar:"):
		path := spec[len("tar:"):]
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		opts := tarfs.Options{Name: "tar0"}
		if err := config.Set(args, &opts); err != nil {
			return nil, err
		}
		return tarfs.Mount(fileReaderAt{f}, opts)
	default:
		return nil, fmt.Errorf("evfsutil: unrecognized --backend %q", flagBackend)
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// fileReaderAt adapts an *os.File to io.ReaderAt for tarfs.Mount.
type fileReaderAt struct{ f *os.File }

func (r fileReaderAt) ReadAt(p []byte, off int64) (int, error) { return r.f.ReadAt(p, off) }

var lsCommand = &cobra.Command{
	Use:   "ls <path>",
	Short: "List the entries of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := mountBackend()
		if err != nil {
			return err
		}
		do, ok := b.(evfs.DirOpener)
		if !ok {
			return evfs.ErrUnsupported
		}
		d, err := do.OpenDir(args[0])
		if err != nil {
			return err
		}
		defer d.Close()
		for {
			info, err := d.Read()
			if evfs.Is(err, evfs.ErrDone) {
				return nil
			}
			if err != nil {
				return err
			}
			kind := "-"
			if info.IsDir() {
				kind = "d"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %10d %s\n", kind, info.Size, info.Name)
		}
	},
}

var catCommand = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a file's contents to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := mountBackend()
		if err != nil {
			return err
		}
		f, err := b.Open(args[0], evfs.Read)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(cmd.OutOrStdout(), f)
		return err
	},
}

var statCommand = &cobra.Command{
	Use:   "stat <path>",
	Short: "Print Info fields for a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := mountBackend()
		if err != nil {
			return err
		}
		info, err := b.Stat(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "name=%q size=%d dir=%v modtime=%s\n",
			info.Name, info.Size, info.IsDir(), info.ModTime)
		return nil
	},
}
