package fsm

import (
	"context"
	"encoding/json"
)

// Context is the per-update accessor for one conversation's state row.
// It carries no cached state of its own: every call goes to the Storage,
// so a Context is only coherent while its key's lock is held.
type Context struct {
	storage Storage
	key     Key
}

// NewContext binds an accessor to a key. Construct it after the per-key
// lock is acquired.
func NewContext(storage Storage, key Key) *Context {
	return &Context{storage: storage, key: key.WithDefaults()}
}

// Key returns the key this accessor is bound to.
func (c *Context) Key() Key {
	return c.key
}

// State reads the current state.
func (c *Context) State(ctx context.Context) (State, error) {
	return c.storage.GetState(ctx, c.key)
}

// SetState writes the state.
func (c *Context) SetState(ctx context.Context, st State) error {
	return c.storage.SetState(ctx, c.key, st)
}

// Data reads the working data.
func (c *Context) Data(ctx context.Context) (map[string]any, error) {
	return c.storage.GetData(ctx, c.key)
}

// SetData replaces the working data.
func (c *Context) SetData(ctx context.Context, data map[string]any) error {
	return c.storage.SetData(ctx, c.key, data)
}

// UpdateData merges kv into the stored data and returns the result.
// The read-modify-write is only atomic under the key's lock.
func (c *Context) UpdateData(ctx context.Context, kv map[string]any) (map[string]any, error) {
	data, err := c.storage.GetData(ctx, c.key)
	if err != nil {
		return nil, err
	}
	for k, v := range kv {
		data[k] = v
	}
	if err := c.storage.SetData(ctx, c.key, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Clear resets the conversation: state cleared first, then data, which
// removes the row entirely.
func (c *Context) Clear(ctx context.Context) error {
	if err := c.storage.SetState(ctx, c.key, StateNone); err != nil {
		return err
	}
	return c.storage.SetData(ctx, c.key, map[string]any{})
}

// DataInt64 extracts an integer value from a data mapping. JSON decoding
// turns numbers into float64, so both original and round-tripped values
// are accepted.
func DataInt64(data map[string]any, key string) (int64, bool) {
	v, ok := data[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// DataString extracts a string value from a data mapping.
func DataString(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
