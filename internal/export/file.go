package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
	"github.com/bgunnarsson/roomexport/internal/observe"
)

// WriteFile encodes rows with exp and replaces path with the result.
//
// The whole document is encoded in memory first, so a serialization error
// leaves the filesystem untouched. The bytes then go to a temp file next to
// path which is synced and renamed over it: readers see either the old file
// or the complete new one.
func WriteFile(path string, exp Exporter, rows *db.Rows, obs observe.Observer) error {
	if obs == nil {
		obs = observe.Nop
	}
	step := filepath.Base(path)

	var buf bytes.Buffer
	if err := exp.Encode(&buf, rows); err != nil {
		var serErr *errs.SerializationError
		if !errors.As(err, &serErr) {
			err = &errs.SerializationError{Format: exp.Format(), Err: err}
		}
		obs.OnError(step, err)
		return err
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		err = &errs.ExportError{Path: path, Err: err}
		obs.OnError(step, err)
		return err
	}
	obs.OnProgress(step, 1, 1)
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
