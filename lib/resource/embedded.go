// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"embed"
	"io/fs"
)

//go:embed assets
var assetFiles embed.FS

// Embedded opens the resources compiled into the binary. An error here
// means the binary was built from a broken asset tree.
func Embedded() (*Store, error) {
	sub, err := fs.Sub(assetFiles, "assets")
	if err != nil {
		return nil, err
	}
	return Open(sub)
}
