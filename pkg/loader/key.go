package loader

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Key identifies a loaded backend.
type Key struct {
	// Model is the model path or name.
	Model string
	// Format is the model format, for instance "onnx".
	Format string
	// Options is anything else that changes the loaded instance, such as the execution provider
	// or the scheduler.
	Options string
}

func (k Key) String() string {
	if k.Options == "" {
		return fmt.Sprintf("%s (%s)", k.Model, k.Format)
	}

	return fmt.Sprintf("%s (%s, %s)", k.Model, k.Format, k.Options)
}

// Digest returns the hex encoded BLAKE3 hash of the key fields. Fields are length prefixed so that
// moving bytes from one field to the next changes the digest.
func (k Key) Digest() string {
	hasher := blake3.New()
	for _, field := range []string{k.Model, k.Format, k.Options} {
		_, _ = fmt.Fprintf(hasher, "%d:%s", len(field), field)
	}

	return hex.EncodeToString(hasher.Sum(nil))
}
