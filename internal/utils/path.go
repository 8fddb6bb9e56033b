package utils

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

const appName = "replserve"

// PathResolver resolves where replserve keeps its config and caches
type PathResolver struct {
	homeDir   string
	configDir string
}

// NewPathResolver creates a path resolver rooted at the user's home
func NewPathResolver() *PathResolver {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		homeDir:   homeDir,
		configDir: getConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: home=%s, configDir=%s", homeDir, pr.configDir)
	return pr
}

// getConfigDir returns the appropriate config directory for the platform
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", appName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		return filepath.Join(homeDir, ".config", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		return filepath.Join(homeDir, "."+appName)
	}
}

// GetConfigPath returns the full path for a file in the config directory.
// It falls back to ~/.replserve and then the temp dir when the config dir
// is not writable.
func (pr *PathResolver) GetConfigPath(filename string) string {
	if pr.ensureConfigDir(pr.configDir) {
		return filepath.Join(pr.configDir, filename)
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, "."+appName),
		filepath.Join(os.TempDir(), appName),
	}
	for _, dir := range fallbackDirs {
		if pr.ensureConfigDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath
}

// ensureConfigDir creates the directory if it doesn't exist and tests writability
func (pr *PathResolver) ensureConfigDir(dir string) bool {
	if err := EnsureDir(dir); err != nil {
		log.Debugf("Cannot create config directory %s: %v", dir, err)
		return false
	}
	return testWriteAccess(dir)
}

// GetConfigDir returns the config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}

// ExpandUser replaces a leading ~ or ~user with that user's home
// directory. Paths naming an unknown user come back unchanged.
func ExpandUser(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	name, rest, _ := strings.Cut(path[1:], string(filepath.Separator))
	var home string
	if name == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	} else if u, err := user.Lookup(name); err == nil {
		home = u.HomeDir
	}
	if home == "" {
		return path
	}
	expanded := filepath.Join(home, rest)
	// filepath.Join drops the trailing separator; "~/" must stay a directory
	if strings.HasSuffix(path, string(filepath.Separator)) && !strings.HasSuffix(expanded, string(filepath.Separator)) {
		expanded += string(filepath.Separator)
	}
	return expanded
}

// PythonSearchPaths returns the PYTHONPATH entries followed by extra,
// without duplicates or empty entries. Entries are ~-expanded.
func PythonSearchPaths(extra ...string) []string {
	var paths []string
	if env := os.Getenv("PYTHONPATH"); env != "" {
		paths = append(paths, filepath.SplitList(env)...)
	}
	paths = append(paths, extra...)

	for i, p := range paths {
		paths[i] = ExpandUser(p)
	}
	return RemoveDuplicates(RemoveEmpty(paths))
}
