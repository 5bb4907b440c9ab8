// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

//go:generate mockgen --destination=saver.mock.go --package=client . BlobSaver

// ErrInvalidFileName is returned for suggested names that cannot be used as a local file name.
var ErrInvalidFileName = errors.New("invalid file name")

// Blob is a fully received download body.
type Blob struct {
	Data        []byte
	ContentType string
}

// BlobSaver persists a downloaded blob under its suggested name.
// A failed Save must leave nothing behind.
type BlobSaver interface {
	Save(ctx context.Context, blob Blob, suggestedName string) error
}

// DiskSaver saves blobs into Dir. The blob is first staged in a temporary file that is
// always released once the save step ends, so only complete files appear under their final name.
type DiskSaver struct {
	Dir string
}

// Save implements BlobSaver.
func (s *DiskSaver) Save(ctx context.Context, blob Blob, suggestedName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := filepath.Base(filepath.Clean("/" + suggestedName))
	if name == "/" || name == "." || strings.HasPrefix(name, ".") {
		return ErrInvalidFileName
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}

	staged, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return err
	}

	defer func() { _ = os.Remove(staged.Name()) }()

	if _, err := staged.Write(blob.Data); err != nil {
		_ = staged.Close()
		return err
	}

	if err := staged.Close(); err != nil {
		return err
	}

	return os.Rename(staged.Name(), filepath.Join(dir, name))
}
