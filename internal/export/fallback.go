package export

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// renderPlainText is the first fallback tier: the sanitized markup is
// flattened to readable plain text. Structure survives as markdown-style
// headings and list markers, which read fine in any text editor.
func renderPlainText(inner string) ([]byte, error) {
	text, err := mdConverter.ConvertString(inner)
	if err != nil {
		return nil, fmt.Errorf("plain text conversion: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("plain text conversion produced no content")
	}
	return []byte(text + "\n"), nil
}

// legacyDocHeader declares the Word-compatible HTML namespace. Word opens
// such a file directly as an editable document.
const legacyDocHeader = `<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head>
<meta charset="utf-8">
<!--[if gte mso 9]><xml><w:WordDocument><w:View>Print</w:View></w:WordDocument></xml><![endif]-->
<style>body { font-family: Georgia, serif; line-height: 1.5; }</style>
</head>
<body>
`

const legacyDocFooter = "\n</body>\n</html>\n"

// renderLegacyDoc is the last fallback tier: the sanitized markup wrapped as
// a Word-compatible HTML document served with a .doc extension.
func renderLegacyDoc(inner string) ([]byte, error) {
	if strings.TrimSpace(inner) == "" {
		return nil, fmt.Errorf("no content for legacy document")
	}
	return []byte(legacyDocHeader + inner + legacyDocFooter), nil
}
