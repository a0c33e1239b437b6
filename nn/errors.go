package nn

import "github.com/pkg/errors"

// These are the errors returned (wrapped) by the network. Test for them with
// errors.Is or errors.Cause.
var (
	ErrUnsupportedActivation = errors.New("unsupported activation")
	ErrInvalidConfig         = errors.New("invalid network configuration")
	ErrShapeMismatch         = errors.New("shape mismatch")
)

func shapeErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrShapeMismatch, format, args...)
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfig, format, args...)
}
