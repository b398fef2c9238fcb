package templates

import (
	"fmt"
	"net/url"
)

func ImageURL(name string) string {
	return fmt.Sprintf("/captures/%s/image", url.PathEscape(name))
}

func DownloadURL(name string) string {
	return ImageURL(name) + "?download=1"
}

func PrintURL(name string) string {
	return fmt.Sprintf("/captures/%s/print", url.PathEscape(name))
}

func QRImageURL(name string) string {
	return fmt.Sprintf("/captures/%s/qr", url.PathEscape(name))
}

func DeleteURL(name string) string {
	return fmt.Sprintf("/captures/%s", url.PathEscape(name))
}
