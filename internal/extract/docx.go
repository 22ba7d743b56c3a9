package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Docx concatenates the paragraphs of a Word document. A .docx is a zip
// archive; the body lives in word/document.xml, where each w:p element is a
// paragraph and w:t elements carry the text runs.
func Docx() Extractor {
	return ExtractorFunc(func(ctx context.Context, path string) (string, error) {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return "", fmt.Errorf("open docx archive: %w", err)
		}
		defer zr.Close()

		var body io.ReadCloser
		for _, f := range zr.File {
			if f.Name == "word/document.xml" {
				body, err = f.Open()
				if err != nil {
					return "", fmt.Errorf("open document.xml: %w", err)
				}
				break
			}
		}
		if body == nil {
			return "", fmt.Errorf("docx has no word/document.xml")
		}
		defer body.Close()

		return docxParagraphs(body)
	})
}

func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
