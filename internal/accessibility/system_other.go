//go:build !darwin

package accessibility

// New returns the platform accessibility implementation.
func New() Accessibility {
	return Unsupported{}
}
