// Package atomicfile writes files the way every shared TFTP-served
// resource in pureboot must be written: to a temp file in the same
// directory, then renamed into place, so a concurrent reader never
// observes a partial write.
package atomicfile

import "os"

// WriteFile writes content to path via a temp-file-then-rename sequence.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// WriteIfChanged writes content to path only when it differs from the
// file's current contents (or the file does not yet exist), returning
// whether a write happened. This is the resync policy spec §4.3 requires
// for the TFTP-root iPXE scripts: regenerate only when content changes.
func WriteIfChanged(path string, content []byte, perm os.FileMode) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && string(existing) == string(content) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if err := WriteFile(path, content, perm); err != nil {
		return false, err
	}
	return true, nil
}
