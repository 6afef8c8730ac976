package wireviz

import "bytes"

// Prepend places each template ahead of the harness source, each followed by
// a blank line, so anchors defined in templates resolve in the harness.
func Prepend(templates [][]byte, source []byte) []byte {
	var buf bytes.Buffer
	for _, tmpl := range templates {
		buf.Write(tmpl)
		buf.WriteString("\n\n")
	}
	buf.Write(source)
	return buf.Bytes()
}
