package imaging

import (
	"image"
	_ "image/jpeg" // register decoder
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // register decoder
)

// Load decodes a PNG, JPEG or WebP file.
func Load(path string) (image.Image, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", path)
	}

	return img, nil
}

// Save encodes img as PNG, creating the parent directory when needed.
func Save(path string, img image.Image) error {
	if path == "" {
		return ErrEmptyPath
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}

	err = png.Encode(file, img)
	if err != nil {
		_ = file.Close()

		return errors.Wrapf(err, "unable to encode %s", path)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", path)
}
