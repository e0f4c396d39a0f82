package feeds

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/globaldeals/catalog-service/internal/types"
)

// Limits for expanded archives. A feed file over 100 MB decompressed is
// not a product feed.
const (
	maxInnerFileSize = 100 << 20
	maxInnerFiles    = 50
)

// ExpandZip extracts parseable feed files from a ZIP archive. Nested
// archives, directories, and unknown file types are skipped.
func ExpandZip(content []byte) ([]types.ExpandedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	files := make([]types.ExpandedFile, 0, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// macOS archives ship metadata under __MACOSX.
		if strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(f.Name, ".") {
			continue
		}

		fileType := types.DetectFileType(f.Name)
		if fileType == types.FileTypeZIP {
			continue
		}

		if f.UncompressedSize64 > maxInnerFileSize {
			return nil, fmt.Errorf("archive entry %s exceeds size limit", f.Name)
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxInnerFileSize+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
		}
		if len(data) > maxInnerFileSize {
			return nil, fmt.Errorf("archive entry %s exceeds size limit", f.Name)
		}

		files = append(files, types.ExpandedFile{
			InnerFilename: f.Name,
			Type:          fileType,
			Content:       data,
		})

		if len(files) >= maxInnerFiles {
			break
		}
	}

	return files, nil
}
