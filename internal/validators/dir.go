package validators

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// MustDir checks that path is an existing directory whose entries can be
// listed.
func MustDir(fs afero.Fs, path string) error {
	st, err := fs.Stat(path)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not directory", path)
	}
	d, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()
	// An empty directory reports io.EOF.
	if _, err := d.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s is not readable: %w", path, err)
	}
	return nil
}
