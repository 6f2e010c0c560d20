// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/ou-media/mediaembed/lib/mediaerr"
)

// List returns the entry names of the archive at path in stored order.
func List(path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, mediaerr.WrapIO("open", path, err)
	}
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	return names, nil
}

// ReadEntry returns the uncompressed content of one entry.
func ReadEntry(path, name string) ([]byte, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, mediaerr.WrapIO("open", path, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		entry, err := file.Open()
		if err != nil {
			return nil, mediaerr.WrapIO("open", path+"!"+name, err)
		}
		defer entry.Close()
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, mediaerr.WrapIO("read", path+"!"+name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("archive %s has no entry %q", path, name)
}
