package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Indexer discovers annotation files under a raw dataset root and maps item
// identifiers to annotation paths.
type Indexer struct {
	FS   afero.Fs
	Root string
	Log  zerolog.Logger
}

// Index walks the root recursively for .xml files (case-insensitive).
//
// The walk is lexical, so identifier collisions resolve deterministically:
// the lexically last file wins. Paths differing only in case are collapsed,
// which keeps the index stable on case-insensitive filesystems. An empty
// tree yields an empty map, not an error.
func (ix Indexer) Index() (map[string]string, error) {
	index := make(map[string]string)
	seen := make(map[string]struct{})

	err := afero.Walk(ix.FS, ix.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".xml" {
			return nil
		}
		lower := strings.ToLower(path)
		if _, dup := seen[lower]; dup {
			return nil
		}
		seen[lower] = struct{}{}

		id := ItemID(filepath.Base(path))
		if prev, collides := index[id]; collides {
			ix.Log.Debug().
				Str("id", id).
				Str("kept", path).
				Str("dropped", prev).
				Msg("annotation identifier collision, last write wins")
		}
		index[id] = path
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "index annotations under %s", ix.Root)
	}

	ix.Log.Info().Int("count", len(index)).Msg("indexed annotation identifiers")
	return index, nil
}
