package appsync

import (
	"reflect"
	"sync"
)

// sequence returns the elements of a slice or array result.
// Byte slices and arrays, including named ones such as json.RawMessage, are
// scalar values, not sequences.
func sequence(result any) ([]any, bool) {
	switch items := result.(type) {
	case nil:
		return nil, false
	case []any:
		return items, true
	}

	value := reflect.ValueOf(result)
	if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
		return nil, false
	}
	if value.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	if value.Kind() == reflect.Slice && value.IsNil() {
		return []any{}, true
	}
	items := make([]any, value.Len())
	for i := range items {
		items[i] = value.Index(i).Interface()
	}
	return items, true
}

// normalizeAll normalizes each element independently. When several elements
// fail, the error of the lowest position is returned.
func (a *Adapter) normalizeAll(items []any) ([]Envelope, error) {
	envelopes := make([]Envelope, len(items))
	errs := make([]error, len(items))

	if a.parallel && len(items) > 1 {
		var wg sync.WaitGroup
		for i, item := range items {
			wg.Add(1)
			go func(i int, item any) {
				defer wg.Done()
				envelopes[i], errs[i] = a.normalizer.Normalize(item)
			}(i, item)
		}
		wg.Wait()
	} else {
		for i, item := range items {
			envelopes[i], errs[i] = a.normalizer.Normalize(item)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return envelopes, nil
}
