package dataset

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artbench/go-peopleart/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RawRoot = "/raw"
	cfg.ProcessedRoot = "/out"
	cfg.StyleListDir = "/out/style_lists"
	cfg.DescriptorPath = "/out/peopleart.yaml"
	return cfg
}

// seedRaw writes n images under /raw/<style>/ with matching annotations
// holding one person at (10,50,10,90) on a 100x100 canvas.
func seedRaw(t *testing.T, fs afero.Fs, style string, n int) {
	t.Helper()
	doc := annotationXML(100, 100, objectXML("person", 10, 50, 10, 90))
	for i := 0; i < n; i++ {
		img := fmt.Sprintf("/raw/%s/img%02d.jpg", style, i)
		require.NoError(t, afero.WriteFile(fs, img, []byte("jpegbytes"), 0o644))
		require.NoError(t, afero.WriteFile(fs, img+".xml", []byte(doc), 0o644))
	}
}

func listDir(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestDiscoverImagesCollapsesCasedDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/raw/s/PIC.JPG", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/raw/s/pic.jpg", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/raw/s/other.jpg", []byte("x"), 0o644))

	images, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.discoverImages()
	require.NoError(t, err)
	assert.Equal(t, []string{"/raw/s/PIC.JPG", "/raw/s/other.jpg"}, images)
}

func TestBuildEndToEnd(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedRaw(t, fs, "art", 20)
	cfg := testConfig()

	res, err := Builder{Cfg: cfg, FS: fs, Log: zerolog.Nop()}.Build()
	require.NoError(t, err)

	assert.Equal(t, 14, res.Counts["train"])
	assert.Equal(t, 3, res.Counts["val"])
	assert.Equal(t, 3, res.Counts["test"])
	assert.Equal(t, 20, res.Total)

	// Every label file holds exactly the one expected line.
	for _, split := range Splits {
		lblDir := filepath.Join("/out/labels", split)
		names := listDir(t, fs, lblDir)
		require.NotEmpty(t, names)
		for _, name := range names {
			data, err := afero.ReadFile(fs, filepath.Join(lblDir, name))
			require.NoError(t, err)
			assert.Equal(t, "0 0.300000 0.500000 0.400000 0.800000", string(data))
		}
		// Images and labels pair off by stem.
		assert.Len(t, names, res.Counts[split])
		assert.Len(t, listDir(t, fs, filepath.Join("/out/images", split)), res.Counts[split])
	}

	// Only 3 test members in the folder-derived "art" style: below the
	// threshold, so no style list is written.
	assert.Empty(t, res.StyleLists)
	assert.Empty(t, listDir(t, fs, "/out/style_lists"))

	// Descriptor exists.
	desc, err := ReadManifest(fs, res.DescriptorPath)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "person"}, desc.Names)
}

func TestBuildDeterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedRaw(t, fs, "art", 20)
	cfg := testConfig()
	b := Builder{Cfg: cfg, FS: fs, Log: zerolog.Nop()}

	snapshot := func() map[string]string {
		files := map[string]string{}
		for _, split := range Splits {
			for _, kind := range []string{"images", "labels"} {
				dir := filepath.Join("/out", kind, split)
				for _, name := range listDir(t, fs, dir) {
					data, err := afero.ReadFile(fs, filepath.Join(dir, name))
					require.NoError(t, err)
					files[filepath.Join(kind, split, name)] = string(data)
				}
			}
		}
		return files
	}

	_, err := b.Build()
	require.NoError(t, err)
	first := snapshot()

	_, err = b.Build()
	require.NoError(t, err)
	second := snapshot()

	assert.Equal(t, first, second)
}

func TestBuildPartitionSizes(t *testing.T) {
	for _, n := range []int{1, 2, 7, 19, 20, 53, 100} {
		fs := afero.NewMemMapFs()
		seedRaw(t, fs, "art", n)
		res, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.Build()
		require.NoError(t, err, "n=%d", n)

		train := int(float64(n) * 0.70)
		val := int(float64(n)*0.85) - train
		test := n - int(float64(n)*0.85)
		assert.Equal(t, train, res.Counts["train"], "n=%d", n)
		assert.Equal(t, val, res.Counts["val"], "n=%d", n)
		assert.Equal(t, test, res.Counts["test"], "n=%d", n)
	}
}

func TestBuildStyleListThreshold(t *testing.T) {
	// With 60 images in one style directory, 9 land in the test subset,
	// which clears the >5 threshold.
	fs := afero.NewMemMapFs()
	seedRaw(t, fs, "Baroque", 60)
	res, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.Build()
	require.NoError(t, err)

	require.Equal(t, []string{"/out/style_lists/Baroque.txt"}, res.StyleLists)
	data, err := afero.ReadFile(fs, res.StyleLists[0])
	require.NoError(t, err)

	lines := splitLines(string(data))
	assert.Len(t, lines, res.Counts["test"])
	for _, line := range lines {
		assert.True(t, filepath.IsAbs(line), "style list entries are absolute: %q", line)
		ok, err := afero.Exists(fs, line)
		require.NoError(t, err)
		assert.True(t, ok, "listed image exists: %q", line)
	}
}

func TestBuildDropsInvalidItems(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedRaw(t, fs, "art", 10)
	// One image with no annotation at all.
	require.NoError(t, afero.WriteFile(fs, "/raw/art/orphan.jpg", []byte("x"), 0o644))
	// One with a malformed annotation.
	require.NoError(t, afero.WriteFile(fs, "/raw/art/broken.jpg", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/raw/art/broken.jpg.xml", []byte("<annotation"), 0o644))
	// One annotated with only non-person objects.
	require.NoError(t, afero.WriteFile(fs, "/raw/art/dog.jpg", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/raw/art/dog.jpg.xml",
		[]byte(annotationXML(100, 100, objectXML("dog", 0, 10, 0, 10))), 0o644))

	res, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.Build()
	require.NoError(t, err)

	// 13 discovered, 10 survive filtering.
	assert.Equal(t, 10, res.Total)
}

func TestBuildNoImages(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/raw", 0o755))

	_, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestBuildNoValidPairs(t *testing.T) {
	fs := afero.NewMemMapFs()
	// Images exist but nothing matches an annotation.
	for i := 0; i < 3; i++ {
		p := fmt.Sprintf("/raw/art/img%02d.jpg", i)
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}

	_, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.Build()
	assert.ErrorIs(t, err, ErrNoValidPairs)
}

func TestBuildUsesMembershipLists(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedRaw(t, fs, "images", 60) // blocklisted parent directory
	// Assign every item to one style via membership lists.
	var members string
	for i := 0; i < 60; i++ {
		members += fmt.Sprintf("img%02d\n", i)
	}
	require.NoError(t, afero.WriteFile(fs, "/raw/ImageSets/Realism.txt", []byte(members), 0o644))

	res, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.Build()
	require.NoError(t, err)

	// Without the lists every test item would be Unknown (parent dir is
	// blocklisted); the lists attribute them all to Realism.
	require.Equal(t, []string{"/out/style_lists/Realism.txt"}, res.StyleLists)
}

func TestBuildFreshStart(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedRaw(t, fs, "art", 20)
	require.NoError(t, afero.WriteFile(fs, "/out/images/train/stale.jpg", []byte("old"), 0o644))

	_, err := Builder{Cfg: testConfig(), FS: fs, Log: zerolog.Nop()}.Build()
	require.NoError(t, err)

	ok, err := afero.Exists(fs, "/out/images/train/stale.jpg")
	require.NoError(t, err)
	assert.False(t, ok, "previous run output is removed")
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
