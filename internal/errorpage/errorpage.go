// Package errorpage supplies the HTML bodies for error responses. A custom
// 404 page in the document root overrides the generated one.
package errorpage

import (
	"fmt"
	"os"
	"path/filepath"

	"staticserver/internal/response"
)

// CustomNotFoundFile is looked up under the document root at startup.
const CustomNotFoundFile = "404.html"

// Pages holds the prepared error bodies. Immutable after Load; safe for
// concurrent use.
type Pages struct {
	notFound       []byte
	notImplemented []byte
}

// Load builds the error pages, reading the custom 404 page from root if one
// exists there. The pages are read once: serving an error must not depend on
// a disk read succeeding.
func Load(root string) *Pages {
	p := &Pages{
		notFound:       generated(response.StatusNotFound, "The requested resource could not be found on this server."),
		notImplemented: generated(response.StatusNotImplemented, "This server only supports GET requests for static files."),
	}
	if custom, err := os.ReadFile(filepath.Join(root, CustomNotFoundFile)); err == nil && len(custom) > 0 {
		p.notFound = custom
	}
	return p
}

// Body returns the HTML body for code, falling back to a generated page for
// codes without a prepared one.
func (p *Pages) Body(code response.StatusCode) []byte {
	switch code {
	case response.StatusNotFound:
		return p.notFound
	case response.StatusNotImplemented:
		return p.notImplemented
	default:
		return generated(code, "")
	}
}

func generated(code response.StatusCode, detail string) []byte {
	reason := response.Reason(code)
	return fmt.Appendf(nil,
		`<!DOCTYPE html>
<html>
<head><title>%d %s</title></head>
<body>
<h1>%d %s</h1>
<p>%s</p>
</body>
</html>
`, int(code), reason, int(code), reason, detail)
}
