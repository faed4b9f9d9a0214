// Package archive packages compiled binaries into release archives.
package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/wstunnel/wsrelease/internal/domain"
	"github.com/wstunnel/wsrelease/internal/utils"
)

// Supported archive formats
const (
	FormatTarGz  = "tar.gz"
	FormatZip    = "zip"
	FormatBinary = "binary"
)

// Spec describes one archive to produce
type Spec struct {
	// Binary is the compiled binary going into the archive
	Binary *domain.Artifact
	// Name is the rendered archive name, without extension
	Name string
	// Format is tar.gz, zip, or binary (plain copy)
	Format string
	// Files are extra file globs bundled alongside the binary
	Files []string
	// Dist is the output directory
	Dist string
}

// Archiver packages binaries according to the manifest's archive section
type Archiver struct {
	logger *utils.Logger
}

// NewArchiver creates a new Archiver
func NewArchiver(logger *utils.Logger) *Archiver {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Archiver{logger: logger.WithComponent("archive")}
}

// Create packages one binary and returns the archive artifact
func (a *Archiver) Create(spec Spec) (*domain.Artifact, error) {
	var (
		path string
		err  error
	)
	switch spec.Format {
	case FormatTarGz:
		path, err = a.tarGz(spec)
	case FormatZip:
		path, err = a.zip(spec)
	case FormatBinary:
		path, err = a.copyBinary(spec)
	default:
		return nil, fmt.Errorf("unknown archive format %q", spec.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", spec.Binary.Target, err)
	}

	a.logger.WithTarget(spec.Binary.Target.String()).
		Debug().Str("path", path).Str("format", spec.Format).Msg("archived")

	return &domain.Artifact{
		Name:    filepath.Base(path),
		Path:    path,
		Type:    domain.TypeArchive,
		Target:  spec.Binary.Target,
		BuildID: spec.Binary.BuildID,
	}, nil
}

// Name renders the archive name template for one target
func Name(tmpl string, tc domain.TemplateContext) (string, error) {
	name, err := tc.Apply("archive name", tmpl)
	if err != nil {
		return "", fmt.Errorf("invalid archive name template: %w", err)
	}
	return utils.SanitizeName(name), nil
}

func (a *Archiver) tarGz(spec Spec) (string, error) {
	out := filepath.Join(spec.Dist, spec.Name+".tar.gz")
	f, err := createFile(out)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	add := func(src, name string, mode int64) error {
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		info, err := in.Stat()
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name:    name,
			Mode:    mode,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err = io.Copy(tw, in)
		return err
	}

	if err := add(spec.Binary.Path, spec.Binary.Name, 0755); err != nil {
		return "", err
	}
	extras, err := expandFiles(spec.Files)
	if err != nil {
		return "", err
	}
	for _, extra := range extras {
		if err := add(extra, filepath.Base(extra), 0644); err != nil {
			return "", err
		}
	}

	if err := tw.Close(); err != nil {
		return "", err
	}
	if err := gw.Close(); err != nil {
		return "", err
	}
	return out, f.Close()
}

func (a *Archiver) zip(spec Spec) (string, error) {
	out := filepath.Join(spec.Dist, spec.Name+".zip")
	f, err := createFile(out)
	if err != nil {
		return "", err
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	add := func(src, name string, mode os.FileMode) error {
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		info, err := in.Stat()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate
		hdr.SetMode(mode)

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, in)
		return err
	}

	if err := add(spec.Binary.Path, spec.Binary.Name, 0755); err != nil {
		return "", err
	}
	extras, err := expandFiles(spec.Files)
	if err != nil {
		return "", err
	}
	for _, extra := range extras {
		if err := add(extra, filepath.Base(extra), 0644); err != nil {
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", err
	}
	return out, f.Close()
}

// copyBinary places the raw binary in dist under the archive name, keeping
// the OS extension so windows binaries stay runnable.
func (a *Archiver) copyBinary(spec Spec) (string, error) {
	out := filepath.Join(spec.Dist, spec.Name+spec.Binary.Target.Ext())

	in, err := os.Open(spec.Binary.Path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	f, err := createFile(out)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.Chmod(0755); err != nil {
		return "", err
	}
	if _, err := io.Copy(f, in); err != nil {
		return "", err
	}
	return out, f.Close()
}

func createFile(path string) (*os.File, error) {
	if err := utils.EnsureDir(path); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// expandFiles resolves extra-file globs. A pattern matching nothing is an
// error so manifests cannot silently ship incomplete archives.
func expandFiles(globs []string) ([]string, error) {
	var files []string
	for _, g := range globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			return nil, fmt.Errorf("invalid files glob %q: %w", g, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("files glob %q matched nothing", g)
		}
		files = append(files, matches...)
	}
	return files, nil
}
