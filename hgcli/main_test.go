package hgcli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"oss.terrastruct.com/util-go/assert"
	"oss.terrastruct.com/util-go/xmain"
	"oss.terrastruct.com/util-go/xos"

	"oss.terrastruct.com/hiergram/hgcli"
	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
	"oss.terrastruct.com/hiergram/lib/version"
)

const sampleJSON = `{
  "nodes": [
    {"id": "node1", "position": {"x": 100, "y": 100}, "size": {"width": 160, "height": 200}, "children": ["node4", "node3"]},
    {"id": "node2", "position": {"x": 400, "y": 100}, "size": {"width": 160, "height": 80}},
    {"id": "node3", "parent": "node1", "position": {"x": 400, "y": 200}, "size": {"width": 160, "height": 60}},
    {"id": "node4", "parent": "node1", "position": {"x": 100, "y": 100}, "size": {"width": 160, "height": 60}}
  ],
  "edges": [
    {"id": "edge1", "fromId": "node1", "fromType": "edgeend", "toType": "edgestart", "toId": "node2"}
  ]
}`

func TestCLI(t *testing.T) {
	t.Parallel()

	tca := []struct {
		name string
		run  func(t *testing.T, ctx context.Context, dir string, env *xos.Env)
	}{
		{
			name: "layout",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				err := runTestMain(t, ctx, dir, env, "sample.json")
				assert.Success(t, err)

				d := readDiagram(t, dir, "sample.layout.json")
				assert.Equal(t, geo.NewDimensions(580, 408), d.Nodes[0].Size)
				assert.Equal(t, geo.Point{X: 500, Y: 300}, d.Nodes[2].AbsolutePosition)
				assert.Equal(t, geo.Point{X: 668, Y: 496}, *d.Edges[0].From)
				assert.Equal(t, geo.Point{X: 412, Y: 112}, *d.Edges[0].To)
			},
		},
		{
			name: "yaml_output",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				err := runTestMain(t, ctx, dir, env, "sample.json", "sample.yml")
				assert.Success(t, err)

				d := readDiagram(t, dir, "sample.yml")
				assert.Equal(t, geo.Point{X: 668, Y: 496}, *d.Edges[0].From)
			},
		},
		{
			name: "flags",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				err := runTestMain(t, ctx, dir, env, "--anchor-inset=0", "--section-height=10", "sample.json", "out.json")
				assert.Success(t, err)

				d := readDiagram(t, dir, "out.json")
				// Nodes are at least 10*4 tall and the header takes 10*3.
				assert.Equal(t, geo.NewDimensions(160, 80), d.Nodes[1].Size)
				assert.Equal(t, geo.NewDimensions(580, 260+40+30), d.Nodes[0].Size)
				assert.Equal(t, geo.Point{X: 400, Y: 100}, *d.Edges[0].To)
			},
		},
		{
			name: "env",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				env.Setenv("HIERGRAM_ANCHOR_INSET", "0")
				err := runTestMain(t, ctx, dir, env, "sample.json", "out.json")
				assert.Success(t, err)

				d := readDiagram(t, dir, "out.json")
				assert.Equal(t, geo.Point{X: 400, Y: 100}, *d.Edges[0].To)
			},
		},
		{
			name: "config_file",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				writeFile(t, dir, "hiergram.toml", "anchor_inset = 4.0\n")
				err := runTestMain(t, ctx, dir, env, "--config=hiergram.toml", "sample.json", "out.json")
				assert.Success(t, err)
				d := readDiagram(t, dir, "out.json")
				assert.Equal(t, geo.Point{X: 402, Y: 102}, *d.Edges[0].To)

				// Flags win over the config file.
				err = runTestMain(t, ctx, dir, env, "--config=hiergram.toml", "--anchor-inset=8", "sample.json", "out.json")
				assert.Success(t, err)
				d = readDiagram(t, dir, "out.json")
				assert.Equal(t, geo.Point{X: 404, Y: 104}, *d.Edges[0].To)
			},
		},
		{
			name: "bad_config_file",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				writeFile(t, dir, "hiergram.toml", "anchor_insets = 4.0\n")
				err := runTestMain(t, ctx, dir, env, "--config=hiergram.toml", "sample.json")
				assertErrorContains(t, err, "unknown config keys: anchor_insets")
			},
		},
		{
			name: "negative_flag",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				err := runTestMain(t, ctx, dir, env, "--section-height=-1", "sample.json")
				assertErrorContains(t, err, "sectionHeight must not be negative, got -1")
			},
		},
		{
			name: "stdin",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				stdin := bytes.NewBufferString(sampleJSON)
				stdout := &bytes.Buffer{}
				tms := testMain(dir, env, "-")
				tms.Stdin = stdin
				tms.Stdout = stdout
				tms.Start(t, ctx)
				defer tms.Cleanup(t)
				err := tms.Wait(ctx)
				assert.Success(t, err)

				d, err := hgtarget.Parse(stdout.Bytes(), hgtarget.FormatJSON)
				assert.Success(t, err)
				assert.Equal(t, geo.Point{X: 412, Y: 112}, *d.Edges[0].To)
			},
		},
		{
			name: "too_many_args",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				err := runTestMain(t, ctx, dir, env, "a.json", "b.json", "c.json")
				assertErrorContains(t, err, "too many arguments passed")
			},
		},
		{
			name: "same_output",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				err := runTestMain(t, ctx, dir, env, "sample.json", "sample.json")
				assertErrorContains(t, err, "output path must differ from the input path")
			},
		},
		{
			name: "watch_stdin",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				err := runTestMain(t, ctx, dir, env, "--watch", "-")
				assertErrorContains(t, err, "-w[atch] cannot be combined with reading input from stdin")
			},
		},
		{
			name: "validate",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "sample.json", sampleJSON)
				err := runTestMain(t, ctx, dir, env, "validate", "sample.json")
				assert.Success(t, err)
			},
		},
		{
			name: "validate_invalid",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				writeFile(t, dir, "bad.yaml", `
nodes:
  - id: a
    parent: ghost
edges:
  - id: e
    fromId: b
`)
				err := runTestMain(t, ctx, dir, env, "validate", "bad.yaml")
				assertErrorContains(t, err, "found 2 issues in bad.yaml")
			},
		},
		{
			name: "validate_missing_arg",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				err := runTestMain(t, ctx, dir, env, "validate")
				assertErrorContains(t, err, "validate must be passed an input file to be validated")
			},
		},
		{
			name: "version",
			run: func(t *testing.T, ctx context.Context, dir string, env *xos.Env) {
				stdout := &bytes.Buffer{}
				tms := testMain(dir, env, "version")
				tms.Stdout = stdout
				tms.Start(t, ctx)
				defer tms.Cleanup(t)
				err := tms.Wait(ctx)
				assert.Success(t, err)
				assert.String(t, version.Version+"\n", stdout.String())
			},
		},
	}

	ctx := context.Background()
	for _, tc := range tca {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()

			dir, cleanup := assert.TempDir(t)
			defer cleanup()

			env := xos.NewEnv(nil)

			tc.run(t, ctx, dir, env)
		})
	}
}

func testMain(dir string, env *xos.Env, args ...string) *xmain.TestState {
	return &xmain.TestState{
		Run:  hgcli.Run,
		Env:  env,
		Args: append([]string{"hgcli/hiergram"}, args...),
		PWD:  dir,
	}
}

func runTestMain(tb testing.TB, ctx context.Context, dir string, env *xos.Env, args ...string) error {
	tms := testMain(dir, env, args...)
	tms.Start(tb, ctx)
	defer tms.Cleanup(tb)
	return tms.Wait(ctx)
}

func writeFile(tb testing.TB, dir, fp, data string) {
	tb.Helper()
	assert.WriteFile(tb, filepath.Join(dir, fp), []byte(data), 0644)
}

func readDiagram(tb testing.TB, dir, fp string) *hgtarget.Diagram {
	tb.Helper()
	b := assert.ReadFile(tb, filepath.Join(dir, fp))
	d, err := hgtarget.Parse(b, hgtarget.FormatFromPath(fp))
	assert.Success(tb, err)
	return d
}

func assertErrorContains(tb testing.TB, err error, substr string) {
	tb.Helper()
	if err == nil {
		tb.Fatalf("expected error containing %q", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		tb.Fatalf("expected error containing %q, got %q", substr, err.Error())
	}
}
