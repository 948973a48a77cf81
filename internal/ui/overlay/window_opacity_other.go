//go:build !windows

package overlay

// applyNativeOpacity is a no-op where the background alpha is all we control.
func (overlay *Window) applyNativeOpacity(uint8) {}
