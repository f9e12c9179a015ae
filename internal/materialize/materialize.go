package materialize

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pulsegate/pulsegate/internal/configtree"
)

// ArtifactMode is the permission mode of every rendered artifact:
// owner read/write, nothing for group or world.
const ArtifactMode fs.FileMode = 0o600

// Artifact describes a rendered configuration file on disk.
type Artifact struct {
	Path string
	Mode fs.FileMode
	Size int
}

// Render serializes the pruned document doc, substitutes bindings into the
// serialized text, and writes the result to path.
//
// The destination is created and forced to mode 0600 before any content is
// written. The ordering matters: the file must already be unreadable to
// other users by the time substituted secret values land in it, including
// when path names a pre-existing file with a looser mode.
func Render(doc *configtree.Node, path string, b Bindings) (*Artifact, error) {
	if doc == nil {
		return nil, fmt.Errorf("materialize: document pruned to nothing")
	}
	text, err := configtree.Marshal(doc)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, ArtifactMode)
	if err != nil {
		return nil, fmt.Errorf("materialize: create artifact %s: %w", path, err)
	}
	defer f.Close()

	// O_CREATE mode only applies to new files and is narrowed by umask;
	// chmod unconditionally so a pre-existing file is restricted too.
	if err := f.Chmod(ArtifactMode); err != nil {
		return nil, fmt.Errorf("materialize: restrict artifact %s: %w", path, err)
	}

	substituted := Substitute(string(text), b)
	if _, err := f.WriteString(substituted); err != nil {
		return nil, fmt.Errorf("materialize: write artifact %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("materialize: close artifact %s: %w", path, err)
	}

	slog.Info("materialize: artifact rendered", "path", path, "bytes", len(substituted))
	return &Artifact{Path: path, Mode: ArtifactMode, Size: len(substituted)}, nil
}
