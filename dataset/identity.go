package dataset

import (
	"path/filepath"
	"strings"
)

// Image pseudo-extensions that may survive inside an annotation stem,
// e.g. "portrait.jpg.xml" annotates "portrait.jpg".
var imagePseudoExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// ItemID derives the join key for a file name. The outer extension is
// stripped, then a trailing image pseudo-extension if one remains, so that
// "img01.jpg.xml", "img01.xml" and "img01.jpg" all map to "img01".
func ItemID(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if _, ok := imagePseudoExts[strings.ToLower(filepath.Ext(stem))]; ok {
		stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	}
	return stem
}
