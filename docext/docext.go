// Package docext converts raw documents (pdf, docx, txt, rtf, images) into
// plain text. Binary parsing and OCR are capabilities supplied by libraries
// and the vision client; this package only dispatches and normalizes.
package docext

import (
	"context"
	"errors"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/summary-boot/llm"
	"github.com/SaiNageswarS/summary-boot/schema"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

type Decoder struct {
	ocr llm.OCRClient
}

// New creates a Decoder. The OCR client may be nil, in which case image
// documents fail with UnsupportedFormat.
func New(ocr llm.OCRClient) *Decoder {
	return &Decoder{ocr: ocr}
}

// Decode extracts plain text from the document. The format tag is trusted
// when present and sniffed from magic bytes otherwise.
func (d *Decoder) Decode(ctx context.Context, doc schema.Document) (schema.PlainText, error) {
	if len(doc.Data) == 0 {
		return schema.PlainText{}, schema.NewFailure(schema.EmptyDocument, "document payload is empty")
	}

	format := doc.Format
	if format == "" {
		format = sniffFormat(doc.Data)
	}

	var text string
	var mime string
	var err error

	switch format {
	case schema.FormatTxt:
		text = string(doc.Data)
	case schema.FormatPDF:
		text, err = extractPDF(doc.Data)
		if err == nil && strings.TrimSpace(text) == "" && d.ocr != nil {
			// No text layer. Hand the pages to the vision capability.
			logger.Info("PDF has no text layer, falling back to OCR")
			text, err = d.ocr.RecognizeText(ctx, doc.Data, "application/pdf")
		}
	case schema.FormatDocx:
		text, err = extractDocx(doc.Data)
	case schema.FormatRtf:
		text, err = extractRtf(doc.Data)
	case schema.FormatImage:
		if d.ocr == nil {
			return schema.PlainText{}, schema.NewFailure(schema.UnsupportedFormat, "image document but no OCR capability configured")
		}
		mime = mimetype.Detect(doc.Data).String()
		text, err = d.ocr.RecognizeText(ctx, doc.Data, mime)
	default:
		return schema.PlainText{}, schema.NewFailure(schema.UnsupportedFormat, "unrecognized format %q", string(format))
	}

	if err != nil {
		// Already-classified failures (OCR transport, cancellation) keep
		// their kind; raw parser errors mean the payload is corrupt.
		var failure *schema.Failure
		if errors.As(err, &failure) {
			return schema.PlainText{}, err
		}
		logger.Error("Text extraction failed",
			zap.String("format", string(format)), zap.Error(err))
		return schema.PlainText{}, schema.WrapFailure(schema.CorruptInput, err, "extracting text from %s", string(format))
	}

	if strings.TrimSpace(text) == "" {
		return schema.PlainText{}, schema.NewFailure(schema.EmptyDocument, "extraction yielded no text")
	}

	return schema.PlainText{
		Text:         text,
		SourceFormat: format,
		SourceBytes:  len(doc.Data),
	}, nil
}

// sniffFormat maps detected MIME types onto the decoder's format tags.
func sniffFormat(data []byte) schema.Format {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return schema.FormatPDF
	case mt.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return schema.FormatDocx
	case mt.Is("text/rtf"):
		return schema.FormatRtf
	case mt.Is("image/jpeg"), mt.Is("image/png"), mt.Is("image/tiff"):
		return schema.FormatImage
	case strings.HasPrefix(mt.String(), "text/"):
		return schema.FormatTxt
	}
	return ""
}
