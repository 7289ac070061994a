package compute

import "context"

type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (SerialBackend) Name() string    { return "serial" }
func (SerialBackend) Available() bool { return true }
func (SerialBackend) Workers() int    { return 1 }

func (SerialBackend) ForEach(ctx context.Context, n int, fn func(start, end int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	return fn(0, n)
}
