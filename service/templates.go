package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// TemplateRenderer supplies the rendered overlay image a compose-mode intro
// or outro is built from. Rendering itself happens in the frontend's
// template editor; the pipeline only consumes its output.
type TemplateRenderer interface {
	RenderedOverlay(projectDir, name string) (string, error)
}

// DiskTemplateRenderer resolves pre-rendered overlays from the project
// directory, preferring <name>_overlay.png and falling back to
// <name>_preview.png.
type DiskTemplateRenderer struct{}

func (DiskTemplateRenderer) RenderedOverlay(projectDir, name string) (string, error) {
	for _, candidate := range []string{name + "_overlay.png", name + "_preview.png"} {
		p := filepath.Join(projectDir, candidate)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no rendered %s overlay found in %s", name, projectDir)
}
