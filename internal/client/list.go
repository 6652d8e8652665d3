package client

import "encoding/json"

// listPayload decodes the two list response shapes the backends produce: a
// bare JSON array, or an object wrapping the array under "data".
type listPayload[T any] struct {
	Data []T
}

func (p *listPayload[T]) UnmarshalJSON(b []byte) error {
	var bare []T
	if err := json.Unmarshal(b, &bare); err == nil {
		p.Data = bare
		return nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	p.Data = wrapped.Data
	return nil
}

func (p listPayload[T]) items() []T { return p.Data }
