package extractor

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDocx 构造一个最小化的docx文件字节流
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeDocx(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Zhang Wei</w:t></w:r></w:p>
    <w:p><w:r><w:t>wei@example.com</w:t><w:tab/><w:t>+86 138 0013 8000</w:t></w:r></w:p>
    <w:p><w:r><w:t>Experience</w:t></w:r></w:p>
    <w:p><w:r><w:t>Python developer</w:t><w:br/><w:t>5 years</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := DecodeDocx(buildDocx(t, docXML))
	require.NoError(t, err)

	assert.Contains(t, text, "Zhang Wei")
	assert.Contains(t, text, "wei@example.com\t+86 138 0013 8000")
	assert.Contains(t, text, "Python developer\n5 years")
}

func TestDecodeDocxNotZip(t *testing.T) {
	_, err := DecodeDocx([]byte("这不是一个zip文件"))
	assert.Error(t, err)
}

func TestDecodeDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = DecodeDocx(buf.Bytes())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document.xml")
}
