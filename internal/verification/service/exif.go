package service

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// ExtractEXIFGPS pulls GPS coordinates out of a photo payload when present.
// The coordinates are recorded for audit only and never gate completion, so
// any decode failure returns nil coordinates without an error.
func ExtractEXIFGPS(photo []byte) (*float64, *float64) {
	meta, err := exif.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, nil
	}

	lat, lng, err := meta.LatLong()
	if err != nil {
		return nil, nil
	}
	return &lat, &lng
}
