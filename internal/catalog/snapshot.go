package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

// WriteSnapshot persists the product list as gzip-compressed JSON. The write
// goes through a temp file and rename so a crash mid-write cannot leave a
// truncated snapshot behind.
func WriteSnapshot(path string, products []Product) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-snapshot-*")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	defer os.Remove(tmp.Name())

	zw := pgzip.NewWriter(tmp)
	if err := json.NewEncoder(zw).Encode(products); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "encode snapshot")
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "compress snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replace snapshot")
	}
	return nil
}

// readSnapshot loads the last persisted product list.
func readSnapshot(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "decompress snapshot")
	}
	defer zr.Close()

	var products []Product
	if err := json.NewDecoder(zr).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return products, nil
}
