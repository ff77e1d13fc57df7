package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// ManifestVersion is the current manifest format version
const ManifestVersion = 1

// ManifestDir is the directory, relative to the project root, holding
// build state
const ManifestDir = ".wirec"

// Manifest records, per schema, the hashes of the schema and of every
// file emitted from it. Stored on disk as CBOR using Core Deterministic
// Encoding.
type Manifest struct {
	Version int                       `json:"version"`
	Entries map[string]ManifestEntry `json:"entries"`
}

// ManifestEntry is the build record of one schema
type ManifestEntry struct {
	// SchemaHash is the BLAKE3 hash of the schema source.
	SchemaHash string `json:"schema_hash"`

	// Compiler is the version of the compiler that emitted the outputs.
	Compiler string `json:"compiler"`

	// Outputs maps each emitted path to the hash of its contents.
	Outputs map[string]string `json:"outputs"`
}

var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}
	cborDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
}

// ManifestPath returns the manifest location under root
func ManifestPath(root string) string {
	return filepath.Join(root, ManifestDir, "manifest.cbor")
}

// NewManifest creates an empty manifest
func NewManifest() *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		Entries: make(map[string]ManifestEntry),
	}
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := cborDecMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if m.Version < 1 {
		return nil, fmt.Errorf("manifest version %d is invalid (minimum 1)", m.Version)
	}
	if m.Version > ManifestVersion {
		// Written by a newer compiler; start over rather than guess.
		return NewManifest(), nil
	}
	if m.Entries == nil {
		m.Entries = make(map[string]ManifestEntry)
	}
	return &m, nil
}

// Save writes the manifest to path, creating its directory
func (m *Manifest) Save(path string) error {
	data, err := cborEncMode.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Record replaces the entry for schemaPath with the given outputs, keyed
// by path and holding file contents
func (m *Manifest) Record(schemaPath, schemaHash, compiler string, outputs map[string]string) {
	hasher := NewFileHasher()
	entry := ManifestEntry{
		SchemaHash: schemaHash,
		Compiler:   compiler,
		Outputs:    make(map[string]string, len(outputs)),
	}
	for path, content := range outputs {
		entry.Outputs[path] = hasher.HashString(content)
	}
	m.Entries[schemaPath] = entry
}

// UpToDate reports whether schemaPath was last built from schemaHash by
// the same compiler and every output on disk still matches what was
// written. Paths in the entry are resolved against root.
func (m *Manifest) UpToDate(root, schemaPath, schemaHash, compiler string) bool {
	entry, ok := m.Entries[schemaPath]
	if !ok || entry.SchemaHash != schemaHash || entry.Compiler != compiler {
		return false
	}
	if len(entry.Outputs) == 0 {
		return false
	}

	hasher := NewFileHasher()
	for path, want := range entry.Outputs {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		got, err := hasher.HashFile(path)
		if err != nil || got != want {
			return false
		}
	}
	return true
}
