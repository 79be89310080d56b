package sync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

func copyFile(fs afero.Fs, srcPath, dstPath string, srcInfo os.FileInfo) (err error) {
	dir := filepath.Dir(dstPath)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	sf, err := fs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open src: %w", err)
	}
	defer sf.Close()

	df, err := afero.TempFile(fs, dir, "."+filepath.Base(dstPath)+".*")
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}
	tmp := df.Name()
	defer func() {
		if err != nil {
			_ = fs.Remove(tmp)
		}
	}()

	_, cErr := io.Copy(df, sf)
	if closeErr := df.Close(); cErr == nil && closeErr != nil {
		return fmt.Errorf("close tmp: %w", closeErr)
	}
	if cErr != nil {
		return fmt.Errorf("copy: %w", cErr)
	}

	if err := fs.Chmod(tmp, srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := fs.Chtimes(tmp, time.Now(), srcInfo.ModTime()); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}
	if err := fs.Rename(tmp, dstPath); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
