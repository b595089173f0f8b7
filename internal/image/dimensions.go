package image

import "fmt"

// Width/height pairs tuned for Z-Image Turbo; roughly the named ratio at a
// 1024 base.
var dimensions = map[string][2]int{
	"1:1":  {1024, 1024},
	"3:4":  {896, 1152},
	"4:3":  {1152, 896},
	"9:16": {768, 1344},
	"16:9": {1344, 768},
}

// Dimensions maps a symbolic aspect ratio to concrete pixel dimensions.
// Unknown ratios fall back to 1024x1024 rather than failing.
func Dimensions(ratio string) (width, height int) {
	if d, ok := dimensions[ratio]; ok {
		return d[0], d[1]
	}
	return 1024, 1024
}

func size(ratio string) string {
	w, h := Dimensions(ratio)
	return fmt.Sprintf("%dx%d", w, h)
}
