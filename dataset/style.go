package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/artbench/go-peopleart/config"
)

// StyleUnknown marks items whose style could not be attributed. Unknown
// items never enter a style list.
const StyleUnknown = "Unknown"

// membershipDirName is the conventional name of the per-style list root.
const membershipDirName = "ImageSets"

// StyleResolver attributes a style name to a test-subset item.
type StyleResolver interface {
	Resolve(id, imagePath string) string
}

// dirResolver derives the style from the image's immediate parent directory,
// unless that name is a reserved layout directory.
type dirResolver struct {
	reserved map[string]struct{}
}

func (r dirResolver) Resolve(_, imagePath string) string {
	parent := filepath.Base(filepath.Dir(imagePath))
	if _, blocked := r.reserved[parent]; blocked {
		return StyleUnknown
	}
	return parent
}

// listResolver answers from the membership lists and falls back per item to
// the directory heuristic, matching items the lists never mention.
type listResolver struct {
	styles   map[string]string
	fallback dirResolver
}

func (r listResolver) Resolve(id, imagePath string) string {
	if style, ok := r.styles[id]; ok {
		return style
	}
	return r.fallback.Resolve(id, imagePath)
}

// StyleLoader reads per-style membership lists from an ImageSets tree.
type StyleLoader struct {
	FS   afero.Fs
	Root string
	Cfg  config.Config
	Log  zerolog.Logger
}

// Load locates the membership root by exact name under Root, falling back to
// a recursive lexical search. A missing root returns (false, empty) and the
// caller degrades to the directory-name heuristic. Each .txt file whose stem
// is not a split name contributes its stem as the style of every identifier
// on its lines (first whitespace token); later files overwrite earlier ones.
func (l StyleLoader) Load() (bool, map[string]string) {
	root, found := l.findRoot()
	if !found {
		l.Log.Warn().Msg("membership directory not found, style analysis will rely on folder names")
		return false, map[string]string{}
	}

	reserved := make(map[string]struct{}, len(l.Cfg.ReservedSets))
	for _, name := range l.Cfg.ReservedSets {
		reserved[strings.ToLower(name)] = struct{}{}
	}

	styles := make(map[string]string)
	_ = afero.Walk(l.FS, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".txt" {
			return nil
		}
		style := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, split := reserved[strings.ToLower(style)]; split {
			return nil
		}
		data, readErr := afero.ReadFile(l.FS, path)
		if readErr != nil {
			l.Log.Warn().Err(readErr).Str("path", path).Msg("skipping unreadable membership list")
			return nil
		}
		for _, line := range strings.Split(string(data), "\n") {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			styles[fields[0]] = style
		}
		return nil
	})

	l.Log.Info().Int("items", len(styles)).Msg("loaded style membership")
	return true, styles
}

func (l StyleLoader) findRoot() (string, bool) {
	direct := filepath.Join(l.Root, membershipDirName)
	if ok, _ := afero.DirExists(l.FS, direct); ok {
		return direct, true
	}

	var nested string
	_ = afero.Walk(l.FS, l.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() && info.Name() == membershipDirName && nested == "" {
			nested = path
		}
		return nil
	})
	return nested, nested != ""
}

// NewStyleResolver picks the resolution strategy from the loader outcome.
func NewStyleResolver(cfg config.Config, loaded bool, styles map[string]string) StyleResolver {
	reserved := make(map[string]struct{}, len(cfg.ReservedDirs))
	for _, name := range cfg.ReservedDirs {
		reserved[name] = struct{}{}
	}
	dir := dirResolver{reserved: reserved}
	if !loaded {
		return dir
	}
	return listResolver{styles: styles, fallback: dir}
}
