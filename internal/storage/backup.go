/*
 * Copyright (c) 2026 The FinchDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package storage

import (
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"finchdb/internal/errors"
)

// BackupTable writes a zstd-compressed snapshot of a table file to
// dest. The snapshot is a byte-for-byte copy of the table file, so
// restoring it preserves the exact page layout (including encryption
// frames).
func (p *Pager) BackupTable(table, dest string) error {
	src, err := os.Open(p.tablePath(table))
	if err != nil {
		return errors.IOError("open table file", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.IOError("create backup file", err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return errors.IOError("init compressor", err)
	}
	n, err := io.Copy(enc, src)
	if err != nil {
		enc.Close()
		return errors.IOError("write backup", err)
	}
	if err := enc.Close(); err != nil {
		return errors.IOError("finish backup", err)
	}
	p.log.Info("Table backed up", "table", table, "dest", dest, "bytes", n)
	return nil
}

// RestoreTable replaces a table file from a zstd-compressed snapshot.
// The restore is atomic: the snapshot is decompressed to a temporary
// file which then replaces the table file by rename.
func (p *Pager) RestoreTable(table, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.IOError("open backup file", err)
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return errors.IOError("init decompressor", err)
	}
	defer dec.Close()

	path := p.tablePath(table)
	tmp := path + ".restore"
	out, err := os.Create(tmp)
	if err != nil {
		return errors.IOError("create table file", err)
	}
	n, err := io.Copy(out, dec)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		return errors.IOError("restore table", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return errors.IOError("close table file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.IOError("replace table file", err)
	}

	p.mu.Lock()
	delete(p.frames, table)
	p.mu.Unlock()
	p.log.Info("Table restored", "table", table, "src", src, "bytes", n)
	return nil
}
