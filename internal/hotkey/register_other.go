//go:build !darwin && !linux && !windows

package hotkey

func platformRegister(Binding) (<-chan struct{}, func() error, error) {
	return nil, nil, ErrUnsupported
}
