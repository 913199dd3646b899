package compose

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	appErr "evdemo/pkg/errors"
)

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// readEnvFile merges KEY=VALUE lines from an env file into out. Blank lines
// and lines starting with '#' are skipped; values may contain '='.
func readEnvFile(filePath string, out map[string]string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return scanner.Err()
}

// writeFileAtomic writes data to a temporary file in the target directory and
// renames it into place, so readers never observe a partial file.
func writeFileAtomic(filePath string, data []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// EnsureWritableFolder creates the folder if needed and probes it with a
// throwaway file. Meant for startup checks so a misconfigured volume fails
// fast instead of on the first request.
func EnsureWritableFolder(folder string) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return appErr.Wrapf(err, appErr.FolderNotWritable,
			"cannot create folder '%s': %v", folder, err)
	}
	probe, err := os.CreateTemp(folder, ".probe-*")
	if err != nil {
		return appErr.New(appErr.FolderNotWritable).
			WithMessage(fmt.Sprintf("folder '%s' is not writable", folder)).
			WithDetail("folder", folder)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}
