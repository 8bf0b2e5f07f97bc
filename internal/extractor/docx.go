package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DecodeDocx 从docx字节流中提取纯文本。
// docx是包含WordprocessingML的zip包，正文在word/document.xml；
// 按流式遍历XML标记收集<w:t>文本，段落结束处换行，不还原任何样式。
func DecodeDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx不是有效的zip包: %w", err)
	}

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("打开document.xml失败: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx中缺少word/document.xml")
	}
	defer docXML.Close()

	return decodeDocumentXML(docXML)
}

func decodeDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 文档可能被截断，返回已收集的部分文本
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", fmt.Errorf("解析document.xml失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
