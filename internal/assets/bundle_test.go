package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"stylesite/internal/config"
)

func threeTree(t *testing.T, root string) {
	t.Helper()
	writeTree(t, filepath.Join(root, "node_modules", "three"), map[string]string{
		"package.json":                       `{"name": "three", "module": "build/three.module.js"}`,
		"build/three.module.js":              `export class Scene { constructor() { this.isScene = true; } }`,
		"examples/jsm/loaders/GLTFLoader.js": `export class GLTFLoader { load(url) { return url; } }`,
	})
}

func bundleOptions(root string) BundleOptions {
	return BundleOptions{
		JSDir:      filepath.Join(root, "js"),
		NPMDir:     filepath.Join(root, "node_modules"),
		OutDir:     filepath.Join(root, "dist", "js"),
		PublicPath: "/js",
	}
}

// byName keys outputs by their path relative to dir, in slash form.
func byName(t *testing.T, dir string, outs []Output) map[string]string {
	t.Helper()
	files := make(map[string]string, len(outs))
	for _, o := range outs {
		rel, err := filepath.Rel(dir, o.Path)
		require.NoError(t, err)
		files[filepath.ToSlash(rel)] = string(o.Contents)
	}
	return files
}

func TestBundle(t *testing.T) {
	root := t.TempDir()
	threeTree(t, root)
	writeTree(t, root, map[string]string{
		"js/3ds.js": `import { Scene } from "three";
import { GLTFLoader } from "three/examples/jsm/loaders/GLTFLoader.js";
import model from "./models/heart.glb";
import "./3dstyles.css";
new GLTFLoader().load(model, new Scene());
`,
		"js/viewer.js":        `import { Scene } from "three"; console.log(new Scene());`,
		"js/models/heart.glb": "glTF",
		"js/3dstyles.css":     "canvas { display: block; }",
	})

	opts := bundleOptions(root)
	opts.Entries = []string{"3ds.js", "viewer.js"}
	outs, err := Bundle(opts)
	require.NoError(t, err)

	files := byName(t, opts.OutDir, outs)
	require.Contains(t, files, "3ds.js")
	require.Contains(t, files, "viewer.js")
	require.Contains(t, files, "3ds.css")
	assert.Contains(t, files["3ds.css"], "display: block")

	app := files["3ds.js"]
	assert.NotContains(t, app, `from "three"`)
	assert.Contains(t, app, "chunks/chunk-")
	assert.Contains(t, app, "/js/assets/heart-")
	assert.Contains(t, app, "GLTFLoader")

	var chunk, model string
	for name, body := range files {
		switch {
		case strings.HasPrefix(name, "chunks/"):
			chunk = body
		case strings.HasPrefix(name, "assets/heart-") && strings.HasSuffix(name, ".glb"):
			model = body
		}
	}
	assert.Contains(t, chunk, "isScene")
	assert.Equal(t, "glTF", model)
}

func TestBundle_Minify(t *testing.T) {
	root := t.TempDir()
	threeTree(t, root)
	writeTree(t, root, map[string]string{
		"js/3ds.js": `import { Scene } from "three";
const scene = new Scene();
console.log(scene);
`,
	})

	opts := bundleOptions(root)
	opts.Entries = []string{"3ds.js"}
	opts.Minify = true
	outs, err := Bundle(opts)
	require.NoError(t, err)

	files := byName(t, opts.OutDir, outs)
	assert.Contains(t, files, "3ds.js.map")
	assert.Contains(t, files["3ds.js"], "isScene")
	assert.NotContains(t, files["3ds.js"], "const scene")
}

func TestBundle_Errors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"js/bad.js":     "import { from",
		"js/missing.js": `import { Scene } from "three";`,
	})

	tests := []struct {
		name  string
		entry string
	}{
		{name: "syntax", entry: "bad.js"},
		{name: "unresolved package", entry: "missing.js"},
		{name: "no such entry", entry: "gone.js"},
		{name: "outside js", entry: "../builds.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := bundleOptions(root)
			opts.Entries = []string{tt.entry}
			_, err := Bundle(opts)
			assert.Error(t, err)
		})
	}

	outs, err := Bundle(bundleOptions(root))
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestCopyVendor(t *testing.T) {
	npm, build := t.TempDir(), t.TempDir()
	writeTree(t, npm, map[string]string{
		"three/examples/js/libs/draco/gltf/draco_decoder.js":   "decoder",
		"three/examples/js/libs/draco/gltf/draco_decoder.wasm": "wasm",
		"three/examples/js/libs/draco/gltf/nested/skip.js":     "nested",
	})

	c := NewCopier(zaptest.NewLogger(t))
	copied := c.CopyVendor(npm, build, []config.VendorCopy{
		{From: "three/examples/js/libs/draco/gltf", To: "draco"},
		{From: "missing/pkg", To: "missing"},
		{From: "../outside", To: "x"},
		{From: "three", To: "../escape"},
	})
	assert.ElementsMatch(t, []string{"draco/draco_decoder.js", "draco/draco_decoder.wasm"}, copied)

	data, err := os.ReadFile(filepath.Join(build, "draco", "draco_decoder.wasm"))
	require.NoError(t, err)
	assert.Equal(t, "wasm", string(data))
	assert.NoDirExists(t, filepath.Join(build, "draco", "nested"))
	assert.NoDirExists(t, filepath.Join(build, "missing"))
}
