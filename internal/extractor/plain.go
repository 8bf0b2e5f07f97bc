package extractor

import (
	"bytes"
	"strings"
)

// utf8BOM 部分Windows编辑器导出的txt带BOM前缀
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodePlainText 将txt文件字节解码为字符串。
// 去掉UTF-8 BOM，丢弃非法UTF-8序列和NUL字节，不做编码猜测。
func DecodePlainText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ToValidUTF8(string(data), "")
	return strings.ReplaceAll(text, "\x00", "")
}
