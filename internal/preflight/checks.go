package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"assetpress/internal/assets"
	"assetpress/internal/compression"
	"assetpress/internal/config"
	"assetpress/internal/manifest"
	"assetpress/internal/pattern"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be walked.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

// CheckCreatableDirectory passes when path is a writable directory, or when it
// is missing but its nearest existing ancestor is writable.
func CheckCreatableDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	result := CheckDirectoryAccess(name, parent)
	if !result.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot be created under %s)", path, parent)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not set"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckFormats verifies the `;`-delimited format list.
func CheckFormats(list string) Result {
	const name = "Formats"
	formats, err := compression.ParseList(list)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(formats) == 0 {
		return Result{Name: name, Passed: true, Detail: "none (only explicit requests will run)"}
	}
	return Result{Name: name, Passed: true, Detail: compression.FormatList(formats)}
}

// CheckPatterns verifies a `;`-delimited glob list.
func CheckPatterns(name, list string) Result {
	patterns := pattern.Split(list)
	if err := pattern.Validate(patterns); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(patterns) == 0 {
		return Result{Name: name, Passed: true, Detail: "none"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d pattern(s)", len(patterns))}
}

// CheckExplicit reports configured explicit requests whose source is missing.
// The planner drops those silently, so this is where users learn about them.
func CheckExplicit(projectRoot string, entries []config.ExplicitRequest) []Result {
	var results []Result
	for _, request := range assets.ExplicitRequests(projectRoot, entries) {
		name := "Explicit " + request.Format
		info, err := os.Stat(request.Identity)
		switch {
		case err != nil:
			results = append(results, Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", request.Identity, errors.Unwrap(err))})
		case !info.Mode().IsRegular():
			results = append(results, Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", request.Identity)})
		default:
			results = append(results, Result{Name: name, Passed: true, Detail: request.Identity})
		}
	}
	return results
}

// CheckManifest opens the manifest when it exists and reports its size.
func CheckManifest(ctx context.Context, path string) Result {
	const name = "Manifest"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	}
	store, err := manifest.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d artifact(s))", path, count)}
}
