// Package templates renders the server side HTML pages of the booth.
package templates

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/aouyang1/photobooth/store"
)

//go:embed *.html
var pages embed.FS

// PrintDelay gives the image time to load before the print dialog opens.
const PrintDelay = 600 * time.Millisecond

var tmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"imageURL":    ImageURL,
	"downloadURL": DownloadURL,
	"printURL":    PrintURL,
	"qrURL":       QRImageURL,
	"deleteURL":   DeleteURL,
	"timestamp": func(t time.Time) string {
		return t.Local().Format("Jan 2 15:04")
	},
}).ParseFS(pages, "*.html"))

type PrintPage struct {
	Name        string
	DelayMillis int64
}

// RenderPrint writes a page that shows a capture and opens the print dialog.
func RenderPrint(w io.Writer, name string) error {
	return tmpl.ExecuteTemplate(w, "print.html", PrintPage{
		Name:        name,
		DelayMillis: PrintDelay.Milliseconds(),
	})
}

type GalleryPage struct {
	Captures []store.Capture
	Admin    bool
}

// RenderGallery writes the gallery fragment shown in the booth UI.
func RenderGallery(w io.Writer, captures []store.Capture, admin bool) error {
	return tmpl.ExecuteTemplate(w, "gallery.html", GalleryPage{
		Captures: captures,
		Admin:    admin,
	})
}
