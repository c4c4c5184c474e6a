package onnxsession

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	onnxrt "github.com/yalue/onnxruntime_go"
)

func systemLibraryPaths(useGPU bool) []string {
	if useGPU {
		return []string{
			"/opt/onnxruntime/gpu/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
		}
	}
	return []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
}

func libraryFileName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func findModuleRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not locate module root from working directory")
		}
		dir = parent
	}
}

func trySetLibraryPath(path string) bool {
	if _, err := os.Stat(path); err == nil {
		onnxrt.SetSharedLibraryPath(path)
		return true
	}
	return false
}

// setLibraryPath locates the onnxruntime shared library, preferring common
// system install locations before falling back to a module-relative
// "onnxruntime/{gpu,}/lib" layout.
func setLibraryPath(useGPU bool) error {
	for _, p := range systemLibraryPaths(useGPU) {
		if trySetLibraryPath(p) {
			return nil
		}
	}

	root, err := findModuleRoot()
	if err != nil {
		return err
	}
	libName, err := libraryFileName()
	if err != nil {
		return err
	}

	if useGPU {
		if trySetLibraryPath(filepath.Join(root, "onnxruntime", "gpu", "lib", libName)) {
			return nil
		}
	}
	libPath := filepath.Join(root, "onnxruntime", "lib", libName)
	if !trySetLibraryPath(libPath) {
		return fmt.Errorf("onnxruntime shared library not found at %s", libPath)
	}
	return nil
}
