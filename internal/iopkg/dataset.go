package iopkg

import (
	"context"
	"encoding/json"
)

// WriteJSON marshals v and writes it to the URI.
func WriteJSON(ctx context.Context, uri string, v any) error {
	w, c, err := CreateWriter(ctx, uri)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		_ = c.Close()
		return err
	}
	return c.Close()
}

// ReadJSON reads the URI and unmarshals it into v.
func ReadJSON(ctx context.Context, uri string, v any) error {
	rc, err := OpenReader(ctx, uri)
	if err != nil {
		return err
	}
	defer rc.Close()
	return json.NewDecoder(rc).Decode(v)
}
