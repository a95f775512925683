package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-pymd/internal/fileutil"
)

// MaxStyleFileSize caps a user stylesheet read from disk.
const MaxStyleFileSize = 1 << 20

// LoadStyleFile reads a user stylesheet. The path must name a regular
// .css file no larger than MaxStyleFileSize; a BOM is honored.
func LoadStyleFile(path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".css") {
		return "", fmt.Errorf("%w: %q (style files must end in .css)", ErrInvalidAssetName, path)
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%w: %s", ErrStyleNotFound, path)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	case !info.Mode().IsRegular():
		return "", fmt.Errorf("%w: not a regular file: %s", ErrAssetRead, path)
	case info.Size() > MaxStyleFileSize:
		return "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrStyleTooLarge, path, info.Size(), MaxStyleFileSize)
	}

	css, err := fileutil.ReadText(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return css, nil
}
