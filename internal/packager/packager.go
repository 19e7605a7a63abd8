// Package packager bundles a built plugin binary and optional extra files
// into a distributable zip archive.
package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jhoonb/archivex"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
)

// Layout controls archive naming and placement.
type Layout struct {
	// InstallDir is the archive directory the binary is placed under.
	InstallDir string `yaml:"install_dir"`
	// BinaryExt selects the build output to package.
	BinaryExt string `yaml:"binary_ext"`
	// ConfigHeader is the project-relative header carrying name and version.
	ConfigHeader string `yaml:"config_header"`
	// FallbackName is used when the header yields no usable name.
	FallbackName string `yaml:"fallback_name"`
}

// DefaultLayout places the DLL where the script extender loads plugins from.
func DefaultLayout() Layout {
	return Layout{
		InstallDir:   "Data/F4SE/Plugins",
		BinaryExt:    ".dll",
		ConfigHeader: "Config.h",
		FallbackName: "plugin",
	}
}

func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.InstallDir == "" {
		l.InstallDir = d.InstallDir
	}
	if l.BinaryExt == "" {
		l.BinaryExt = d.BinaryExt
	}
	if l.ConfigHeader == "" {
		l.ConfigHeader = d.ConfigHeader
	}
	if l.FallbackName == "" {
		l.FallbackName = d.FallbackName
	}
	return l
}

// Request names the inputs of one packaging run.
type Request struct {
	ProjectDir string
	ReleaseDir string
	// ExtrasDir is optional; every file below it is added under its relative path.
	ExtrasDir string
	OutputDir string
}

// Result describes the written archive.
type Result struct {
	Name    string
	Archive string
	Binary  string
	Entries []string
}

// Packager writes plugin archives.
type Packager struct {
	layout Layout
	out    io.Writer
}

// New returns a Packager writing progress lines to out (nil discards them).
func New(layout Layout, out io.Writer) *Packager {
	if out == nil {
		out = io.Discard
	}
	return &Packager{layout: layout.withDefaults(), out: out}
}

// Name returns the archive base name for projectDir, falling back to the
// layout's fallback name when the header is unreadable or incomplete.
func (p *Packager) Name(projectDir string) string {
	header := filepath.Join(projectDir, filepath.FromSlash(p.layout.ConfigHeader))
	name, err := ReadArchiveName(header)
	if err != nil {
		slog.Warn("Using fallback archive name", logfields.Path(header), logfields.Error(err), slog.String("name", p.layout.FallbackName))
		return p.layout.FallbackName
	}
	return sanitizeName(name)
}

// FindBinary returns the lexicographically first build output in dir.
func (p *Packager) FindBinary(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+p.layout.BinaryExt))
	if err != nil || len(matches) == 0 {
		return "", errors.NotFoundError("no plugin binary found").
			WithContext("dir", dir).
			WithContext("pattern", "*"+p.layout.BinaryExt).
			Build()
	}
	sort.Strings(matches)
	return matches[0], nil
}

// Package writes <OutputDir>/<name>.zip.
func (p *Packager) Package(req Request) (Result, error) {
	res := Result{Name: p.Name(req.ProjectDir)}

	binary, err := p.FindBinary(req.ReleaseDir)
	if err != nil {
		return res, err
	}
	res.Binary = binary

	if err := os.MkdirAll(req.OutputDir, 0o750); err != nil {
		return res, fsError(err, "create output directory", req.OutputDir)
	}
	res.Archive = filepath.Join(req.OutputDir, res.Name+".zip")

	f, err := os.Create(res.Archive)
	if err != nil {
		return res, fsError(err, "create archive", res.Archive)
	}
	zf := &archivex.ZipFile{Name: res.Archive, Writer: zip.NewWriter(f)}

	werr := p.write(zf, &res, req)
	if cerr := zf.Close(); werr == nil && cerr != nil {
		werr = fsError(cerr, "finalize archive", res.Archive)
	}
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = fsError(cerr, "close archive", res.Archive)
	}
	if werr != nil {
		_ = os.Remove(res.Archive)
		return res, werr
	}

	_, _ = fmt.Fprintf(p.out, "Archive created at: %s\n", res.Archive)
	slog.Info("Archive created", logfields.Path(res.Archive), logfields.Count(len(res.Entries)))
	return res, nil
}

func (p *Packager) write(zf *archivex.ZipFile, res *Result, req Request) error {
	entry := path.Join(p.layout.InstallDir, filepath.Base(res.Binary))
	if err := p.add(zf, res, res.Binary, entry); err != nil {
		return err
	}
	if req.ExtrasDir == "" {
		return nil
	}
	return filepath.WalkDir(req.ExtrasDir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return fsError(err, "walk extras", file)
		}
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			// file symlinks are archived with the target's content
			target, err := os.Stat(file)
			if err != nil || !target.Mode().IsRegular() {
				return nil
			}
		}
		rel, err := filepath.Rel(req.ExtrasDir, file)
		if err != nil {
			return fsError(err, "relative extras path", file)
		}
		return p.add(zf, res, file, filepath.ToSlash(rel))
	})
}

func (p *Packager) add(zf *archivex.ZipFile, res *Result, file, entry string) error {
	_, _ = fmt.Fprintf(p.out, "Adding: %s\n", file)
	in, err := os.Open(file)
	if err != nil {
		return fsError(err, "open archive input", file)
	}
	defer func() { _ = in.Close() }()
	// archivex names the entry after info when given one, so the header is built from entry
	if err := zf.Add(entry, in, nil); err != nil {
		return fsError(err, "add archive entry", entry)
	}
	res.Entries = append(res.Entries, entry)
	return nil
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}

// sanitizeName keeps the archive inside the output directory whatever the header says.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}
