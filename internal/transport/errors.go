package transport

import "errors"

var (
	ErrUnsupportedAddress = errors.New("transport: unsupported address")
	ErrIO                 = errors.New("transport: io")
	ErrCodec              = errors.New("transport: codec")
)
