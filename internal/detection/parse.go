package detection

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParseError reports a malformed detection payload.
type ParseError struct {
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed detection payload: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed detection payload: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// record mirrors one detection entry in the service payload. Pointer fields
// distinguish a missing key from a legitimate zero.
type record struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	W     *float64 `json:"w"`
	H     *float64 `json:"h"`
	Score *float64 `json:"score"`
}

// Parse converts a raw detection payload into a Response. The payload is a
// JSON object mapping label names to lists of {x,y,w,h,score} records; one
// BoundingBox is built per record with the label taken from the key.
//
// A payload that is not valid JSON, or that contains a record missing any
// field, fails with a *ParseError; there is no best-effort skipping of bad
// records. Boxes are ordered by sorted label key, then record order within
// a key, so repeated parses of the same payload always agree.
func Parse(raw []byte) (Response, error) {
	var payload map[string][]record
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Response{}, &ParseError{Reason: "invalid JSON", Cause: err}
	}

	labels := make([]string, 0, len(payload))
	for label := range payload {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var resp Response
	for _, label := range labels {
		for i, rec := range payload[label] {
			if rec.X == nil || rec.Y == nil || rec.W == nil || rec.H == nil || rec.Score == nil {
				return Response{}, &ParseError{
					Reason: fmt.Sprintf("record %d under label %q is missing a field", i, label),
				}
			}
			resp.Boxes = append(resp.Boxes, BoundingBox{
				Label:  label,
				X:      *rec.X,
				Y:      *rec.Y,
				Width:  *rec.W,
				Height: *rec.H,
				Score:  *rec.Score,
			})
		}
	}
	return resp, nil
}
