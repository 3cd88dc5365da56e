package interop

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ManifestFileFormatVersion is the layer manifest format the loader reads.
const ManifestFileFormatVersion = "1.0.0"

// Manifest is the JSON document the OpenXR loader uses to discover the
// layer.
type Manifest struct {
	FileFormatVersion string        `json:"file_format_version"`
	ApiLayer          ManifestLayer `json:"api_layer"`
}

// ManifestLayer is the api_layer object of a Manifest.
type ManifestLayer struct {
	Name                  string `json:"name"`
	LibraryPath           string `json:"library_path"`
	APIVersion            string `json:"api_version"`
	ImplementationVersion string `json:"implementation_version"`
	Description           string `json:"description"`
	DisableEnvironment    string `json:"disable_environment"`
}

// NewManifest describes the layer built as the library at libraryPath.
func NewManifest(libraryPath string) Manifest {
	return Manifest{
		FileFormatVersion: ManifestFileFormatVersion,
		ApiLayer: ManifestLayer{
			Name:                  LayerName,
			LibraryPath:           libraryPath,
			APIVersion:            "1.0",
			ImplementationVersion: LayerVersion,
			Description:           "Direct3D 12 support on Direct3D 11 OpenXR runtimes",
			DisableEnvironment:    "DISABLE_" + LayerName,
		},
	}
}

// Validate reports the first required field that is empty.
func (m Manifest) Validate() error {
	switch {
	case m.FileFormatVersion == "":
		return fmt.Errorf("manifest: missing file_format_version")
	case m.ApiLayer.Name == "":
		return fmt.Errorf("manifest: missing api_layer.name")
	case m.ApiLayer.LibraryPath == "":
		return fmt.Errorf("manifest: missing api_layer.library_path")
	case m.ApiLayer.APIVersion == "":
		return fmt.Errorf("manifest: missing api_layer.api_version")
	}
	return nil
}

// WriteManifest writes m as indented JSON.
func WriteManifest(w io.Writer, m Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// ReadManifest decodes a manifest. Manifests edited on Windows often carry
// a byte order mark or are saved as UTF-16; a BOM selects the encoding,
// UTF-8 is assumed without one.
func ReadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	if err := json.NewDecoder(dec).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	return m, m.Validate()
}

// ReadManifestFile reads and validates the manifest at path.
func ReadManifestFile(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}
