package commands

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirec-lang/wirec/internal/compiler/cache"
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
)

const netSchema = `type Point = struct { x: f32, y: f32 }

event Move = { from: Client, type: Unreliable, call: SingleSync, data: Point }
event Ping = { from: Server, type: Reliable, call: ManySync }
`

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func (r cliResult) exitCode() int {
	if r.err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(r.err, &exit) {
		return exit.Code
	}
	return -1
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

// project creates a temp dir holding net.wire and makes it the working
// directory
func newProject(t *testing.T, schema string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "net.wire"), []byte(schema), 0o644))
	chdir(t, dir)
	return dir
}

func runCLI(ctx context.Context, stdin string, args ...string) cliResult {
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(ctx)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func run(args ...string) cliResult {
	return runCLI(context.Background(), "", args...)
}

func TestVersion(t *testing.T) {
	r := run("version")
	require.NoError(t, r.err)
	for _, want := range []string{"wirec version:", "Git commit:", "Build date:", "Go version:"} {
		assert.Contains(t, r.stdout, want)
	}
}

func TestBuild(t *testing.T) {
	dir := newProject(t, netSchema)

	r := run("build")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Built net.wire (2 written, 0 unchanged)")
	assert.FileExists(t, filepath.Join(dir, "network", "server.luau"))
	assert.FileExists(t, filepath.Join(dir, "network", "client.luau"))
	assert.FileExists(t, cache.ManifestPath(dir))

	r = run("build")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "net.wire is up to date")

	r = run("build", "--force")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "(0 written, 2 unchanged)")
}

func TestBuild_Check(t *testing.T) {
	dir := newProject(t, netSchema)
	require.NoError(t, run("build").err)

	server := filepath.Join(dir, "network", "server.luau")
	original, err := os.ReadFile(server)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(server, append([]byte("-- edited\n"), original...), 0o644))

	r := run("build", "--check")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stdout, "--- network/server.luau (on disk)")
	assert.Contains(t, r.stdout, "+++ network/server.luau (generated)")
	assert.Contains(t, r.stdout, "--- edited")
	assert.Contains(t, r.stderr, "OUTPUT OUT OF DATE")

	edited, err := os.ReadFile(server)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(edited, []byte("-- edited")), "check must not write")

	r = run("build")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "(1 written, 1 unchanged)")

	r = run("build", "--check", "--force")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Generated files are up to date")
}

func TestBuild_JSON(t *testing.T) {
	newProject(t, netSchema)

	r := run("build", "--json")
	require.NoError(t, r.err)

	var report buildReport
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &report))
	assert.True(t, report.OK)
	assert.Equal(t, "net.wire", report.Schema)
	assert.Equal(t, []string{"network/client.luau", "network/server.luau"}, report.Written)
}

func TestBuild_Errors(t *testing.T) {
	dir := newProject(t, "type A = Mising\ntype Missing = u8\n")

	r := run("build")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stderr, "net.wire:1:10: error:")
	assert.Contains(t, r.stderr, "[SEM200]")
	assert.Contains(t, r.stderr, "BUILD FAILED")
	assert.NoDirExists(t, filepath.Join(dir, "network"))
}

func TestBuild_DenyWarnings(t *testing.T) {
	dir := newProject(t, "type A = u8\n")

	r := run("build")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stderr, "warning:")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "wirec.yml"), []byte("analysis:\n  deny_warnings: true\n"), 0o644))
	r = run("build", "--force")
	assert.Equal(t, 1, r.exitCode())
}

func TestBuild_SchemaNotFound(t *testing.T) {
	newProject(t, netSchema)

	r := run("build", "nte.wire")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stderr, "SCHEMA NOT FOUND")
	assert.Contains(t, r.stderr, "Did you mean: net.wire?")
}

func TestBuild_ConfigOutputs(t *testing.T) {
	dir := newProject(t, netSchema)
	config := "output:\n  server: out/server.luau\n  client: out/client.luau\n  typescript: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wirec.yml"), []byte(config), 0o644))

	r := run("build")
	require.NoError(t, r.err, r.stderr)
	assert.FileExists(t, filepath.Join(dir, "out", "server.luau"))
	assert.FileExists(t, filepath.Join(dir, "out", "client.luau"))
	assert.NoDirExists(t, filepath.Join(dir, "network"))
}

func TestBuild_InvalidConfig(t *testing.T) {
	dir := newProject(t, netSchema)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wirec.yml"), []byte("schema: net.txt\n"), 0o644))

	r := run("build")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stderr, "CONFIGURATION ERROR")
	assert.Contains(t, r.stderr, "must be a .wire file")
}

func TestCheck(t *testing.T) {
	dir := newProject(t, netSchema)

	r := run("check", "--summary")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "net.wire: 0 errors, 0 warnings")
	assert.Contains(t, r.stdout, "Event")
	assert.Regexp(t, `Move\s+1\s+Client\s+Unreliable\s+SingleSync\s+8`, r.stdout)
	assert.Regexp(t, `Ping\s+2\s+Server\s+Reliable\s+ManySync\s+0`, r.stdout)
	assert.Contains(t, r.stdout, "event id: u8")
	assert.NoDirExists(t, filepath.Join(dir, "network"))
}

func TestCheck_Directory(t *testing.T) {
	dir := newProject(t, netSchema)
	sub := filepath.Join(dir, "more")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "bad.wire"), []byte("type A = \n"), 0o644))

	r := run("check", ".")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stdout, "net.wire: 0 errors")
	assert.Contains(t, r.stderr, filepath.Join("more", "bad.wire"))
}

func TestCheck_DenyWarnings(t *testing.T) {
	newProject(t, "type A = u8\n")

	require.NoError(t, run("check").err)
	assert.Equal(t, 1, run("check", "--deny-warnings").exitCode())
}

func TestCheck_JSON(t *testing.T) {
	newProject(t, "type A = Missing\n")

	r := run("check", "--json")
	assert.Equal(t, 1, r.exitCode())

	var reports []struct {
		Schema      string `json:"schema"`
		OK          bool   `json:"ok"`
		Diagnostics []struct {
			Code string `json:"code"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &reports))
	require.Len(t, reports, 1)
	assert.False(t, reports[0].OK)
	var codes []string
	for _, d := range reports[0].Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "SEM200")
	assert.Empty(t, r.stderr)
}

func TestIR(t *testing.T) {
	dir := newProject(t, netSchema)

	r := run("ir", "--shape")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "id_kind: u8")
	assert.Contains(t, r.stdout, "name: Point")
	assert.NotContains(t, r.stdout, "ser:")

	r = run("ir", "--format", "json")
	require.NoError(t, r.err)
	var listing irgen.Listing
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &listing))
	require.Len(t, listing.Events, 2)
	assert.Equal(t, "Move", listing.Events[0].Name)
	assert.NotEmpty(t, listing.Events[0].Ser)

	out := filepath.Join(dir, "ir.cbor")
	r = run("ir", "--format", "cbor", "-o", out)
	require.NoError(t, r.err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded irgen.Listing
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, listing.IDKind, decoded.IDKind)
	assert.Equal(t, listing.Types, decoded.Types)

	r = run("ir", "--format", "toml")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "must be one of yaml, json, cbor")
}

func TestDocs(t *testing.T) {
	dir := newProject(t, netSchema)

	r := run("docs")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "# net.wire")
	assert.Contains(t, r.stdout, "| 1 | [Move](#move) | Client | Unreliable | SingleSync | 8 |")

	out := filepath.Join(dir, "docs", "net.json")
	r = run("docs", "--format", "json", "-o", out)
	require.NoError(t, r.err, r.stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc struct {
		IDKind string `json:"id_kind"`
		Events []struct {
			Name    string `json:"name"`
			Example any    `json:"example"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "u8", doc.IDKind)
	require.Len(t, doc.Events, 2)
	assert.Equal(t, map[string]any{"x": 0.0, "y": 0.0}, doc.Events[0].Example)
}

func TestFmt(t *testing.T) {
	dir := newProject(t, netSchema)

	r := run("fmt")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "net.wire (no changes)")

	messy := "type  Point = struct {x:f32,y:f32}\n"
	path := filepath.Join(dir, "net.wire")
	require.NoError(t, os.WriteFile(path, []byte(messy), 0o644))

	r = run("fmt")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "-type  Point = struct {x:f32,y:f32}")
	assert.Contains(t, r.stdout, "+type Point = struct { x: f32, y: f32 }")
	assert.Contains(t, r.stdout, "Run 'wirec fmt --write' to apply changes")

	r = run("fmt", "--check")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stderr, "net.wire needs formatting")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, messy, string(data))

	r = run("fmt", "--write")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "net.wire formatted")

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "type Point = struct { x: f32, y: f32 }\n", string(data))

	require.NoError(t, run("fmt", "--check").err)
}

func TestFmt_Stdin(t *testing.T) {
	newProject(t, netSchema)

	r := runCLI(context.Background(), "type A=u8[ 4 ]", "fmt", "-")
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "type A = u8[4]\n", r.stdout)
}

func TestFmt_SyntaxError(t *testing.T) {
	newProject(t, "type = u8\n")

	r := run("fmt", "--check")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stderr, "net.wire:1:6: error")
}

func TestEncodeDecode_Type(t *testing.T) {
	newProject(t, netSchema)

	r := runCLI(context.Background(), `{"x": 1, /* comment */ "y": 2}`, "encode", "net.wire", "--type", "Point")
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "0000803f00000040\n", r.stdout)

	r = runCLI(context.Background(), "0000803f 00000040\n", "decode", "net.wire", "--type", "Point")
	require.NoError(t, r.err, r.stderr)
	assert.JSONEq(t, `{"x": 1, "y": 2}`, r.stdout)
}

func TestEncodeDecode_Event(t *testing.T) {
	dir := newProject(t, netSchema)
	value := filepath.Join(dir, "move.json")
	require.NoError(t, os.WriteFile(value, []byte(`{"x": 0.5, "y": -4}`), 0o644))

	r := run("encode", "net.wire", value, "--event", "Move", "--format", "base64")
	require.NoError(t, r.err, r.stderr)

	r = runCLI(context.Background(), r.stdout, "decode", "net.wire", "--event", "--format", "base64")
	require.NoError(t, r.err, r.stderr)
	assert.JSONEq(t, `{"event": "Move", "id": 1, "value": {"x": 0.5, "y": -4}}`, r.stdout)

	r = runCLI(context.Background(), "", "encode", "net.wire", "--event", "Ping")
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "02\n", r.stdout)
}

func TestDecode_Batch(t *testing.T) {
	newProject(t, netSchema)

	r := runCLI(context.Background(), "02 01 0000803f00000040 02", "decode", "net.wire", "--batch")
	require.NoError(t, r.err, r.stderr)
	assert.JSONEq(t, `[
		{"event": "Ping", "id": 2, "value": null},
		{"event": "Move", "id": 1, "value": {"x": 1, "y": 2}},
		{"event": "Ping", "id": 2, "value": null}
	]`, r.stdout)
}

func TestDecode_Errors(t *testing.T) {
	newProject(t, netSchema)

	r := runCLI(context.Background(), "0000803f0000004000", "decode", "net.wire", "--type", "Point")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "1 trailing bytes")

	r = runCLI(context.Background(), "zz", "decode", "net.wire", "--type", "Point")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "parsing hex input")

	r = runCLI(context.Background(), "09", "decode", "net.wire", "--event")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "unknown event id 9")

	r = run("decode", "net.wire")
	require.Error(t, r.err)
}

func TestEncode_RangeError(t *testing.T) {
	newProject(t, "type Small = u8(0..10)\nevent E = { from: Client, type: Reliable, call: SingleSync, data: Small }\n")

	r := runCLI(context.Background(), "11", "encode", "net.wire", "--type", "Small")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "encoding:")
}

func TestInit(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)

	r := run("init", "MyGame", "--yes")
	require.NoError(t, r.err, r.stderr)
	assert.FileExists(t, filepath.Join(root, "MyGame", "wirec.yml"))
	assert.FileExists(t, filepath.Join(root, "MyGame", "my_game.wire"))

	r = run("init", "MyGame", "--yes")
	assert.Equal(t, 1, r.exitCode())
	assert.Contains(t, r.stderr, "already exists")

	chdir(t, filepath.Join(root, "MyGame"))
	r = run("build")
	require.NoError(t, r.err, r.stderr)
	assert.FileExists(t, filepath.Join(root, "MyGame", "src", "server", "network.luau"))
	assert.FileExists(t, filepath.Join(root, "MyGame", "src", "client", "network.luau"))
}

func TestDefaultSchemaName(t *testing.T) {
	assert.Equal(t, "my_game.wire", defaultSchemaName("MyGame"))
	assert.Equal(t, "space_game.wire", defaultSchemaName("space-game"))
}

func TestWatch_BuildsOnce(t *testing.T) {
	dir := newProject(t, netSchema)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runCLI(ctx, "", "watch")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Rebuilt net.wire")
	assert.FileExists(t, filepath.Join(dir, "network", "server.luau"))
}

func TestServe_Shutdown(t *testing.T) {
	newProject(t, netSchema)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runCLI(ctx, "", "serve", "--addr", "127.0.0.1:0")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Playground listening on http://127.0.0.1:")
}

func TestEnumValue(t *testing.T) {
	v := newEnum("hex", "hex", "raw")
	assert.Equal(t, "hex", v.String())
	assert.Equal(t, "hex|raw", v.Type())
	require.NoError(t, v.Set("raw"))
	assert.Equal(t, "raw", v.String())
	assert.Error(t, v.Set("octal"))
	assert.Equal(t, "raw", v.String())
}

func TestDecodeBytes_HexIgnoresWhitespace(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("spaced hex decodes to the original bytes", prop.ForAll(
		func(data []byte, every int) bool {
			encoded := hex.EncodeToString(data)
			var b strings.Builder
			for i, r := range encoded {
				if i > 0 && i%(every*2) == 0 {
					b.WriteString(" \n")
				}
				b.WriteRune(r)
			}
			got, err := decodeBytes([]byte(b.String()), "hex")
			return err == nil && bytes.Equal(got, data)
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
