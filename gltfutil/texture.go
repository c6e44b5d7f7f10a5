package gltfutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"

	"github.com/blezek/tga"
	_ "github.com/oov/psd"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type TextureOption struct {
	ResolutionLimit int // 0: unlimited
	Logger          *zap.Logger
}

// ToSingleFile embeds external and data URI images into the document's
// buffers. Formats other than PNG and JPEG are re-encoded as PNG.
func ToSingleFile(doc *gltf.Document, srcDir string, opt *TextureOption) error {
	if opt == nil {
		opt = &TextureOption{}
	}
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, b := range doc.Buffers {
		b.URI = ""
	}
	for _, m := range doc.Images {
		if m.BufferView == nil && m.URI == "" {
			continue
		}
		var name string
		var data []byte
		var err error
		if m.BufferView != nil {
			if opt.ResolutionLimit == 0 {
				continue
			}
			name = m.Name
			data, err = bufferViewData(doc, *m.BufferView)
		} else if strings.HasPrefix(m.URI, "data:") {
			name = m.Name
			data, err = decodeDataURI(m.URI)
		} else {
			name = m.URI
			data, err = readURI(srcDir, m.URI)
		}
		if err != nil {
			logger.Warn("texture skipped", zap.String("image", name), zap.Error(err))
			continue
		}

		mimeType, data, reencoded, err := encodeTexture(name, m.MimeType, data, opt.ResolutionLimit)
		if err != nil {
			logger.Warn("texture skipped", zap.String("image", name), zap.Error(err))
			continue
		}
		if m.BufferView != nil && !reencoded {
			continue
		}
		m.MimeType = mimeType
		m.BufferView = gltf.Index(modeler.WriteBufferView(doc, gltf.TargetNone, data))
		m.URI = ""
		logger.Debug("texture embedded", zap.String("image", name), zap.String("mime", mimeType), zap.Int("bytes", len(data)))
	}
	return nil
}

func readURI(srcDir, uri string) ([]byte, error) {
	p, err := url.PathUnescape(uri)
	if err != nil {
		p = uri
	}
	return os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(p)))
}

func decodeDataURI(uri string) ([]byte, error) {
	i := strings.IndexByte(uri, ',')
	if i < 0 || !strings.HasSuffix(uri[:i], ";base64") {
		return nil, fmt.Errorf("unsupported data uri")
	}
	return base64.StdEncoding.DecodeString(uri[i+1:])
}

func bufferViewData(doc *gltf.Document, idx uint32) ([]byte, error) {
	if int(idx) >= len(doc.BufferViews) {
		return nil, fmt.Errorf("invalid buffer view %d", idx)
	}
	v := doc.BufferViews[idx]
	if int(v.Buffer) >= len(doc.Buffers) {
		return nil, fmt.Errorf("invalid buffer %d", v.Buffer)
	}
	data := doc.Buffers[v.Buffer].Data
	if int(v.ByteOffset+v.ByteLength) > len(data) {
		return nil, fmt.Errorf("buffer view %d out of range", idx)
	}
	return data[v.ByteOffset : v.ByteOffset+v.ByteLength], nil
}

func mimeTypeOf(name, mimeType string) string {
	if mimeType != "" {
		return mimeType
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return ""
}

func decodeImage(name string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil && strings.ToLower(filepath.Ext(name)) == ".tga" {
		// retry
		img, err = tga.Decode(bytes.NewReader(data))
	}
	return img, err
}

func encodeTexture(name, mimeType string, data []byte, limit int) (string, []byte, bool, error) {
	mimeType = mimeTypeOf(name, mimeType)
	if (mimeType == "image/png" || mimeType == "image/jpeg") && limit == 0 {
		return mimeType, data, false, nil
	}

	img, err := decodeImage(name, data)
	if err != nil {
		return "", nil, false, err
	}
	rect := img.Bounds()
	if limit > 0 && (rect.Dx() > limit || rect.Dy() > limit) {
		scale := float64(limit) / float64(rect.Dx())
		if rect.Dy() > rect.Dx() {
			scale = float64(limit) / float64(rect.Dy())
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(rect.Dx())*scale), int(float64(rect.Dy())*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
		img = dst
	} else if mimeType == "image/png" || mimeType == "image/jpeg" {
		return mimeType, data, false, nil
	}

	w := new(bytes.Buffer)
	if mimeType == "image/jpeg" {
		err = jpeg.Encode(w, img, nil)
	} else {
		mimeType = "image/png"
		err = png.Encode(w, img)
	}
	if err != nil {
		return "", nil, false, err
	}
	return mimeType, w.Bytes(), true, nil
}
