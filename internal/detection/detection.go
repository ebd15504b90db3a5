package detection

// BoundingBox is a single detected object instance: label, geometry, and
// confidence, exactly as the inference service reported them. Units are
// whatever the service uses; no conversion happens on this side.
type BoundingBox struct {
	Label  string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Score  float64
}

// Response holds every box the inference service returned for one image.
// The zero value is a valid empty response.
type Response struct {
	Boxes []BoundingBox
}

// Empty reports whether the response carries no detections.
func (r Response) Empty() bool {
	return len(r.Boxes) == 0
}
