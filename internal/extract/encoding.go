package extract

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DetectEncoding detects the character encoding of an export document
func DetectEncoding(content []byte) string {
	head := string(content[:min(1024, len(content))])

	if enc := charsetFromMeta(head); enc != "" {
		return enc
	}

	_, name, _ := charset.DetermineEncoding(content, "text/html")
	if name != "" {
		return name
	}

	return "utf-8"
}

// charsetFromMeta extracts the charset declared in the document head
func charsetFromMeta(head string) string {
	head = strings.ToLower(head)

	idx := strings.Index(head, "charset=")
	if idx == -1 {
		return ""
	}

	start := idx + len("charset=")
	if start < len(head) && (head[start] == '"' || head[start] == '\'') {
		start++
	}

	end := start
	for ; end < len(head); end++ {
		c := head[end]
		if c == '"' || c == '\'' || c == ';' || c == '>' || c == ' ' || c == '/' {
			break
		}
	}

	return strings.TrimSpace(head[start:end])
}

// DecodeHTML returns the document as UTF-8 text. Documents in an unknown
// encoding are returned unchanged.
func DecodeHTML(content []byte) string {
	enc := DetectEncoding(content)
	if enc == "utf-8" || enc == "utf8" {
		return string(content)
	}

	e, err := htmlindex.Get(enc)
	if err != nil {
		return string(content)
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), e.NewDecoder()))
	if err != nil {
		return string(content)
	}
	return string(decoded)
}
