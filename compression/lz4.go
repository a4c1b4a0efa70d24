package compression

import (
	"bytes"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// CompressLz4 streams src through an lz4 frame writer into output.
func CompressLz4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)

	if _, err := zw.Write(src); err != nil {
		return fmt.Errorf("compression: lz4 write: %w", err)
	}
	if err := zw.Flush(); err != nil {
		return fmt.Errorf("compression: lz4 flush: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compression: lz4 close: %w", err)
	}
	return nil
}
