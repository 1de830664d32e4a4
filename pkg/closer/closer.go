// Package closer shuts down a set of resources in order
package closer

import "errors"

type (
	Closer interface {
		Close() error
	}

	CloserGroup struct {
		closers []Closer
	}
)

func NewCloserGroup(closers ...Closer) *CloserGroup {
	return &CloserGroup{
		closers: closers,
	}
}

// Add appends closers, nil ones are skipped
func (c *CloserGroup) Add(closers ...Closer) {
	for _, cl := range closers {
		if cl != nil {
			c.closers = append(c.closers, cl)
		}
	}
}

// Close closes every member in reverse order of registration and joins the errors
func (c *CloserGroup) Close() error {
	var errs []error

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
