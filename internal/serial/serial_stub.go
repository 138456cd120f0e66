//go:build !linux

package serial

import (
	"fmt"
	"os"
)

func openSerial(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("serial not supported on this platform")
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 4800, 9600, 19200, 38400, 57600, 115200:
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported baud %d", baud)
	}
}
