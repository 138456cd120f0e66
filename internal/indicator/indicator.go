package indicator

// Indicator is a status light flipped as records are stored.
type Indicator interface {
	Toggle() error
	Close() error
}

// Nop is used when no light is configured.
type Nop struct{}

func (Nop) Toggle() error { return nil }
func (Nop) Close() error  { return nil }

// Open drives the BCM GPIO pin as an activity light. Only Linux on ARM
// boards has a backend; elsewhere Open returns an error.
func Open(pin int) (Indicator, error) {
	return openGPIOFn(pin)
}
