package assets

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
)

// squareJPEG centre-crops the image to a size x size square and re-encodes it as JPEG.
func squareJPEG(r io.Reader, size int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newReader(b []byte) io.Reader { return bytes.NewReader(b) }
