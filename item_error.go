package fetchpool

import (
	"errors"
	"fmt"
)

// ItemMetaError exposes correlation metadata for a failed batch item.
// Errors returned by FetchAll carry the input index of the item whose
// failure terminated the batch, plus the item value itself.
type ItemMetaError interface {
	error
	Unwrap() error
	ItemIndex() (int, bool)
	Item() (any, bool)
}

type itemTaggedError struct {
	err   error
	item  any
	index int
}

func newItemTaggedError(err error, item any, index int) error {
	if err == nil {
		return nil
	}
	return &itemTaggedError{err: err, item: item, index: index}
}

func (e *itemTaggedError) Error() string { return e.err.Error() }
func (e *itemTaggedError) Unwrap() error { return e.err }

func (e *itemTaggedError) ItemIndex() (int, bool) { return e.index, true }

func (e *itemTaggedError) Item() (any, bool) {
	if e.item == nil {
		return nil, false
	}
	return e.item, true
}

func (e *itemTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "item(index=%d,value=%v): %+v", e.index, e.item, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractItemIndex returns the input index of the failed item, if err carries one.
func ExtractItemIndex(err error) (int, bool) {
	var ime ItemMetaError
	if errors.As(err, &ime) {
		return ime.ItemIndex()
	}
	return 0, false
}

// ExtractItem returns the failed item value, if err carries one.
func ExtractItem(err error) (any, bool) {
	var ime ItemMetaError
	if errors.As(err, &ime) {
		return ime.Item()
	}
	return nil, false
}
