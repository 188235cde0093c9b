package docext

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/SaiNageswarS/summary-boot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOCR struct {
	text string
	err  error
	mime string
}

func (s *stubOCR) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	s.mime = mimeType
	return s.text, s.err
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecodeTxt(t *testing.T) {
	d := New(nil)

	out, err := d.Decode(context.Background(), schema.Document{
		Data:   []byte("Plain text document."),
		Format: schema.FormatTxt,
	})
	require.NoError(t, err)

	assert.Equal(t, "Plain text document.", out.Text)
	assert.Equal(t, schema.FormatTxt, out.SourceFormat)
	assert.Equal(t, 20, out.SourceBytes)
}

func TestDecodeEmptyPayload(t *testing.T) {
	d := New(nil)

	_, err := d.Decode(context.Background(), schema.Document{Format: schema.FormatTxt})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.EmptyDocument))
}

func TestDecodeWhitespaceOnlyText(t *testing.T) {
	d := New(nil)

	_, err := d.Decode(context.Background(), schema.Document{
		Data:   []byte("  \n\t  "),
		Format: schema.FormatTxt,
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.EmptyDocument))
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	d := New(nil)

	_, err := d.Decode(context.Background(), schema.Document{
		Data:   []byte("data"),
		Format: "xlsx",
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.UnsupportedFormat))
}

func TestDecodeDocx(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t> paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`
	d := New(nil)

	out, err := d.Decode(context.Background(), schema.Document{
		Data:   buildDocx(t, docXML),
		Format: schema.FormatDocx,
	})
	require.NoError(t, err)

	assert.Equal(t, "First paragraph.\nSecond paragraph.\n", out.Text)
}

func TestDecodeDocxMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, err := w.Create("unrelated.txt")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	d := New(nil)
	_, err = d.Decode(context.Background(), schema.Document{
		Data:   buf.Bytes(),
		Format: schema.FormatDocx,
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.CorruptInput))
}

func TestDecodeCorruptDocx(t *testing.T) {
	d := New(nil)

	_, err := d.Decode(context.Background(), schema.Document{
		Data:   []byte("not a zip archive"),
		Format: schema.FormatDocx,
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.CorruptInput))
}

func TestDecodeRtf(t *testing.T) {
	rtf := `{\rtf1\ansi{\fonttbl{\f0 Helvetica;}}\f0\fs24 Hello \b world\b0.\par Second line.}`
	d := New(nil)

	out, err := d.Decode(context.Background(), schema.Document{
		Data:   []byte(rtf),
		Format: schema.FormatRtf,
	})
	require.NoError(t, err)

	assert.Contains(t, out.Text, "Hello world.")
	assert.Contains(t, out.Text, "Second line.")
	assert.NotContains(t, out.Text, "Helvetica")
}

func TestDecodeRtfWithoutHeader(t *testing.T) {
	d := New(nil)

	_, err := d.Decode(context.Background(), schema.Document{
		Data:   []byte("just plain text"),
		Format: schema.FormatRtf,
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.CorruptInput))
}

func TestDecodeImageWithOCR(t *testing.T) {
	ocr := &stubOCR{text: "Recognized text from scan."}
	d := New(ocr)

	// Minimal PNG header so MIME detection reports image/png.
	png := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 32)...)

	out, err := d.Decode(context.Background(), schema.Document{
		Data:   png,
		Format: schema.FormatImage,
	})
	require.NoError(t, err)

	assert.Equal(t, "Recognized text from scan.", out.Text)
	assert.Equal(t, "image/png", ocr.mime)
}

func TestDecodeImageUnreadableOCR(t *testing.T) {
	// OCR succeeds but finds nothing readable: EmptyDocument, and chunking
	// is never reached.
	ocr := &stubOCR{text: "   "}
	d := New(ocr)

	png := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 32)...)

	_, err := d.Decode(context.Background(), schema.Document{
		Data:   png,
		Format: schema.FormatImage,
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.EmptyDocument))
}

func TestDecodeImageOCRFailureKeepsKind(t *testing.T) {
	ocr := &stubOCR{err: schema.NewFailure(schema.RateLimited, "vision quota")}
	d := New(ocr)

	png := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 32)...)

	_, err := d.Decode(context.Background(), schema.Document{
		Data:   png,
		Format: schema.FormatImage,
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.RateLimited))
}

func TestDecodeImageWithoutOCRClient(t *testing.T) {
	d := New(nil)

	_, err := d.Decode(context.Background(), schema.Document{
		Data:   []byte{0xff, 0xd8, 0xff},
		Format: schema.FormatImage,
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.UnsupportedFormat))
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected schema.Format
	}{
		{"pdf", []byte("%PDF-1.7 stub"), schema.FormatPDF},
		{"rtf", []byte(`{\rtf1 hello}`), schema.FormatRtf},
		{"png", append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 16)...), schema.FormatImage},
		{"plain text", []byte("hello world"), schema.FormatTxt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sniffFormat(tt.data))
		})
	}
}
