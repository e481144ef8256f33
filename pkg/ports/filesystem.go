package ports

// FileSystem abstracts the file operations used by config loading and debug output.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating parent directories as needed.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Glob returns the regular files matching a pattern, sorted by name.
	Glob(pattern string) ([]string, error)
}
