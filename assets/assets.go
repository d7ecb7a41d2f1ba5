// Package assets provides embedded viewer assets (shaders)
// This allows the viewer to be distributed as a single executable
package assets

import (
	"embed"
)

//go:embed shaders/*.vert shaders/*.frag
var embeddedFS embed.FS

// FS returns the embedded filesystem containing all assets
func FS() embed.FS {
	return embeddedFS
}

// ReadShader reads a shader file from embedded assets
func ReadShader(name string) ([]byte, error) {
	return embeddedFS.ReadFile("shaders/" + name)
}
