// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/cephsnap/pkg/defaults"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// Result describes a written archive.
type Result struct {
	Path   string `json:"path" yaml:"path"`
	Size   int64  `json:"size" yaml:"size"`
	Digest string `json:"digest" yaml:"digest"`
	Files  int    `json:"files" yaml:"files"`
}

// Pack writes the contents of dir into a gzip compressed tar at dest.
// Entry names are relative to dir.
func Pack(ctx context.Context, dir, dest string) (res *Result, err error) {
	out, err := os.Create(dest)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal,
			fmt.Sprintf("failed to create archive %s", dest), err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = apperrors.Wrap(apperrors.ErrCodeInternal,
				fmt.Sprintf("failed to close archive %s", dest), cerr)
		}
		if err != nil {
			res = nil
			if rerr := os.Remove(dest); rerr != nil && !os.IsNotExist(rerr) {
				slog.Warn("failed to remove partial archive",
					slog.String("path", dest), slog.String("error", rerr.Error()))
			}
		}
	}()

	hash := sha256.New()
	gz := gzip.NewWriter(io.MultiWriter(out, hash))
	tw := tar.NewWriter(gz)

	files := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return err
		}
		files++
		return nil
	})
	if walkErr != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal,
			fmt.Sprintf("failed to archive %s", dir), walkErr)
	}

	if err := tw.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to finalize tar stream", err)
	}
	if err := gz.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to finalize gzip stream", err)
	}

	info, err := out.Stat()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to stat archive", err)
	}

	res = &Result{
		Path:   dest,
		Size:   info.Size(),
		Digest: "sha256:" + hex.EncodeToString(hash.Sum(nil)),
		Files:  files,
	}
	slog.Debug("archive written",
		slog.String("path", res.Path),
		slog.Int64("size", res.Size),
		slog.Int("files", res.Files))
	return res, nil
}

// Unpack extracts the gzip compressed tar at src into dest. Entries that
// would land outside dest are rejected.
func Unpack(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("failed to open archive %s", src), err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("archive %s is not gzip compressed", src), err)
	}
	defer gz.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("corrupt archive %s", src), err)
		}

		target := filepath.Join(dest, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("archive entry %q escapes the destination", hdr.Name))
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create directory", err)
			}
		case tar.TypeReg:
			if err := extractFile(tr, target); err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInternal,
					fmt.Sprintf("failed to extract %s", hdr.Name), err)
			}
		default:
			slog.Debug("skipping archive entry", slog.String("name", hdr.Name))
		}
	}
}

func extractFile(r io.Reader, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil { //nolint:gosec // snapshot archives are produced by this tool
		out.Close()
		return err
	}
	return out.Close()
}

// IsArchive reports whether path names a snapshot archive file.
func IsArchive(path string) bool {
	return strings.HasSuffix(path, defaults.ArchiveSuffix) || strings.HasSuffix(path, ".tgz")
}

// Open resolves path to a snapshot directory. A directory is returned as
// is; an archive is unpacked into a scratch directory that cleanup removes.
func Open(path string) (dir string, cleanup func(), err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("snapshot %s", path), err)
	}
	if info.IsDir() {
		return path, func() {}, nil
	}

	scratch, err := os.MkdirTemp("", "cephsnap-inspect-")
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create scratch directory", err)
	}
	cleanup = func() {
		if err := os.RemoveAll(scratch); err != nil {
			slog.Warn("failed to remove scratch directory",
				slog.String("path", scratch), slog.String("error", err.Error()))
		}
	}
	if err := Unpack(path, scratch); err != nil {
		cleanup()
		return "", nil, err
	}
	return scratch, cleanup, nil
}
