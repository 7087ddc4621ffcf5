package repair

// Wrap embeds repaired inner markup in the fixed print-oriented container:
// heading/paragraph/list spacing, page-break avoidance for headings and list
// items, and a fixed-position footer region for print.
func Wrap(inner string) string {
	return documentHead + inner + documentTail
}

const documentHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
#veta-doc {
  font-family: 'Georgia', 'Times New Roman', serif;
  line-height: 1.5;
  font-size: 11pt;
  color: #333;
  max-width: 210mm;
  margin: 0 auto;
  padding: 20px;
  box-sizing: border-box;
}
h1 { font-size: 18pt; margin: 0 0 10px; padding-bottom: 5px; border-bottom: 1px solid #eee; }
h2 { font-size: 14pt; margin: 25px 0 10px; color: #2c3e50; border-bottom: 1px solid #e2e8f0; padding-bottom: 5px; }
h3 { font-size: 12pt; margin: 20px 0 8px; color: #34495e; font-weight: bold; }
p { margin: 8px 0 12px; text-align: justify; }
ul, ol { margin: 10px 0 15px; padding-left: 25px; }
li { margin-bottom: 6px; page-break-inside: avoid; }
.page-break { page-break-before: always; }
@media print {
  body { margin: 0; padding: 0; }
  #veta-doc { padding: 15mm; }
  h1, h2, h3, h4 { page-break-after: avoid; }
  ul, ol, p, li { page-break-inside: avoid; }
  .veta-footer { position: fixed; bottom: 10mm; left: 0; right: 0; text-align: center; }
}
</style>
</head>
<body>
<div id="veta-doc">
`

const documentTail = `
</div>
</body>
</html>`
