package copier

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"isoburn/internal/report"
)

const (
	ChunkSize = 16 * 1024 // 16KiB per write, one progress update each

	completeMessage = "copying image...done"
)

// Progress is the byte accounting for one copy run.
type Progress struct {
	Total   int64
	Written int64
}

// Add records n more bytes written and returns the new percentage.
func (p *Progress) Add(n int) float64 {
	p.Written += int64(n)
	return p.Percent()
}

func (p *Progress) Percent() float64 {
	return report.Percent(p.Written, p.Total)
}

// Copier copies the contents of a mounted image onto a mounted partition.
type Copier struct {
	sink      report.Sink
	chunkSize int
	sync      func()
}

func New(sink report.Sink) *Copier {
	return &Copier{sink: sink, chunkSize: ChunkSize, sync: unix.Sync}
}

// WithSync replaces the filesystem flush run after a successful copy.
func (c *Copier) WithSync(sync func()) *Copier {
	c.sync = sync
	return c
}

// Copy copies every directory and regular file below src into dst. Symbolic
// links are dropped at every depth: they mean nothing on FAT32. Files already
// written stay in place when an error aborts the copy.
func (c *Copier) Copy(ctx context.Context, src, dst string, progress *Progress) error {
	if progress.Total <= 0 {
		c.sink.Progress(progress.Written, progress.Total)
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			log.Ctx(ctx).Debug().Str("path", path).Msg("skipping symbolic link")
			return nil
		case d.IsDir():
			if rel == "." {
				return nil
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", target)
			}
			return nil
		case d.Type().IsRegular():
			return c.copyFile(path, target, progress)
		default:
			log.Ctx(ctx).Debug().Str("path", path).Stringer("mode", d.Type()).Msg("skipping special file")
			return nil
		}
	})
	if err != nil {
		return err
	}

	c.sync()
	c.sink.Complete(completeMessage)
	return nil
}

func (c *Copier) copyFile(src, dst string, progress *Progress) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}

	if err := c.copyWithProgress(in, out, progress); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", dst)
	}
	return nil
}

// copyWithProgress copies data from src to dst, reporting after every chunk.
func (c *Copier) copyWithProgress(src io.Reader, dst io.Writer, progress *Progress) error {
	buf := make([]byte, c.chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			progress.Add(n)
			c.sink.Progress(progress.Written, progress.Total)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
